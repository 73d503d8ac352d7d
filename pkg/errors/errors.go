package errors

import "errors"

// 错误种类：业务错误通过 fmt.Errorf("%w: ...") 包装下列种类，
// Handler 层据此统一映射 HTTP 状态码

// ErrValidation 参数或业务校验失败（4xx）
var ErrValidation = errors.New("参数校验失败")

// ErrNotFound 请求的资源不存在（404）
var ErrNotFound = errors.New("资源不存在")

// IsValidation 判断是否为校验类错误
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsNotFound 判断是否为资源不存在错误
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
