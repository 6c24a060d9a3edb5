package core

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）
//
// 使用场景：
//   - Store 错误：NOT_FOUND, NOT_SUPPORTED
//   - Catalog 错误：NOT_FOUND, INVALID_INPUT（数据完整性）
//   - Bundle 错误：BUILD_FAILED（矩阵束重建失败）
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "BUILD_FAILED"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "catalog", "bundle"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// GetDomainError 获取 DomainError，如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if domainErr, ok := err.(*DomainError); ok {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	ErrorCodeNotFound     = "NOT_FOUND"     // 资源不存在
	ErrorCodeNotSupported = "NOT_SUPPORTED" // 操作不支持
	ErrorCodeUnavailable  = "UNAVAILABLE"   // 服务不可用
	ErrorCodeInvalidInput = "INVALID_INPUT" // 输入无效（数据完整性问题）
	ErrorCodeBuildFailed  = "BUILD_FAILED"  // 矩阵束重建失败
)

// 模块名称常量
const (
	ModuleStore   = "store"   // KV 存储模块
	ModuleCatalog = "catalog" // 目录与交易存储
	ModuleBundle  = "bundle"  // 矩阵束构建与缓存
	ModuleRecall  = "recall"  // 召回模块
	ModuleFeature = "feature" // 特征服务模块
)

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotSupported
	}
	return false
}

// IsBuildFailed 检查错误是否为矩阵束重建失败
func IsBuildFailed(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeBuildFailed
	}
	return false
}
