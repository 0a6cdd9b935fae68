package di

import (
	"go.uber.org/dig"
)

// Container 进程级依赖容器，启动时装配问答链路的全部组件
// （缓存、向量索引、嵌入、生成与各业务服务）
var Container *dig.Container

// InitContainer 创建空容器，随后由RegisterProviders填充
func InitContainer() *dig.Container {
	Container = dig.New()
	return Container
}

// GetContainer 获取容器实例
func GetContainer() *dig.Container {
	return Container
}

// Invoke 从容器解析依赖并执行函数，控制器通过它获取服务
func Invoke(function interface{}, opts ...dig.InvokeOption) error {
	return Container.Invoke(function, opts...)
}

// Provide 向容器注册一个构造函数
func Provide(constructor interface{}, opts ...dig.ProvideOption) error {
	return Container.Provide(constructor, opts...)
}
