package api

import "fmt"

// ValidationError 本地校验失败（在发起任何网络请求之前拦截，直接提示用户）
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// TransportError 网络层失败（连接失败、超时等），对用户呈现为服务不可达
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ServiceError 服务端返回非成功状态；Detail 为服务端给出的错误说明（可能为空）
type ServiceError struct {
	Op         string
	StatusCode int
	Detail     string
}

func (e *ServiceError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Detail, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
}
