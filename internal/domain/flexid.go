package domain

import (
	"bytes"
	"strconv"
)

// FlexID is a numeric identifier that the backend serializes sometimes as
// a JSON number and sometimes as a string (ids lifted from URL routes).
type FlexID int64

func (f *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return err
	}
	*f = FlexID(n)
	return nil
}

func (f FlexID) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, int64(f), 10), nil
}

func (f FlexID) Int64() int64 { return int64(f) }
