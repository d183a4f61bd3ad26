package models

import (
	"encoding/json"
	"strconv"

	"github.com/tidwall/gjson"
)

// RemoteProduct mirrors a product as returned by the Tiendanube products endpoint (read-only).
type RemoteProduct struct {
	ID         int64               `json:"id"`
	Name       LocalizedText       `json:"name"`
	Brand      *string             `json:"brand"`
	Published  bool                `json:"published"`
	Categories []RemoteCategoryRef `json:"categories"`
	Images     []RemoteImage       `json:"images"`
	Variants   []RemoteVariant     `json:"variants"`
}

// RemoteCategoryRef is the category entry nested in a product. Only the id is used.
type RemoteCategoryRef struct {
	ID int64 `json:"id"`
}

type RemoteImage struct {
	Src string `json:"src"`
}

// RemoteVariant carries price as a decimal string and stock as nullable (null = unlimited).
type RemoteVariant struct {
	ID     int64           `json:"id"`
	SKU    *string         `json:"sku"`
	Price  *string         `json:"price"`
	Stock  *int64          `json:"stock"`
	Values []LocalizedText `json:"values"`
}

// RemoteCategory is one node of the flat parent-pointer category table.
// Parent is nil or 0 for roots.
type RemoteCategory struct {
	ID     int64         `json:"id"`
	Name   LocalizedText `json:"name"`
	Parent *int64        `json:"parent"`
}

// LocalizedText holds a Tiendanube localized field, either a plain string or {"es": ..., "pt": ...}.
type LocalizedText struct {
	raw json.RawMessage
}

// NewLocalizedText builds a Spanish-only value.
func NewLocalizedText(es string) LocalizedText {
	b, _ := json.Marshal(map[string]string{"es": es})
	return LocalizedText{raw: b}
}

func (t *LocalizedText) UnmarshalJSON(b []byte) error {
	t.raw = append(t.raw[:0], b...)
	return nil
}

func (t LocalizedText) MarshalJSON() ([]byte, error) {
	if len(t.raw) == 0 {
		return []byte("null"), nil
	}
	return t.raw, nil
}

// String prefers the "es" value, then a plain string, then the first non-empty translation.
func (t LocalizedText) String() string {
	if len(t.raw) == 0 {
		return ""
	}
	res := gjson.ParseBytes(t.raw)
	switch {
	case res.Type == gjson.String:
		return res.Str
	case res.Type == gjson.Number:
		return strconv.FormatFloat(res.Num, 'f', -1, 64)
	case res.IsObject():
		if es := res.Get("es"); es.Exists() && es.String() != "" {
			return es.String()
		}
		var first string
		res.ForEach(func(_, value gjson.Result) bool {
			if value.Type == gjson.String && value.Str != "" {
				first = value.Str
				return false
			}
			return true
		})
		return first
	}
	return ""
}
