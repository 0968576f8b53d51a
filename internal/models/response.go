package models

type Response struct {
	OK    bool        `json:"ok"`
	ID    interface{} `json:"id,omitempty"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
	Code  string      `json:"code,omitempty"`
}

func SuccessResponse(data interface{}) Response {
	return Response{
		OK:   true,
		Data: data,
	}
}

// CreatedResponse carries the id of the row a write produced.
func CreatedResponse(id interface{}, data interface{}) Response {
	return Response{
		OK:   true,
		ID:   id,
		Data: data,
	}
}

func ErrorResponse(code, err string) Response {
	return Response{
		OK:    false,
		Error: err,
		Code:  code,
	}
}
