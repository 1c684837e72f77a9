package accessvendor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ResultCode accepts the vendor code as either a JSON string or number.
type ResultCode string

func (c *ResultCode) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*c = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = ResultCode(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid vendor result code %s", string(b))
	}
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		*c = ResultCode(strconv.FormatInt(i, 10))
		return nil
	}
	*c = ResultCode(n.String())
	return nil
}

// Envelope is the vendor's response wrapper: {"code":"0","msg":"","data":{}}.
type Envelope struct {
	Code ResultCode      `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// Response is a successful vendor reply.
type Response struct {
	Status int
	Code   string
	Msg    string
	Data   json.RawMessage
}

// Decode unmarshals the data payload into v.
func (r *Response) Decode(v any) error {
	if len(r.Data) == 0 || string(r.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("failed to decode vendor data: %w", err)
	}
	return nil
}
