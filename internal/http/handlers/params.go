package handlers

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// params looks up render parameters across the places a client may put
// them: query string, urlencoded form body and JSON body. Query and form
// win over JSON so curl-style overrides keep working on POST requests.
type params struct {
	ctx  *fiber.Ctx
	body map[string]any
}

func newParams(c *fiber.Ctx) *params {
	p := &params{ctx: c}
	if strings.Contains(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) && len(c.Body()) > 0 {
		var m map[string]any
		if err := json.Unmarshal(c.Body(), &m); err == nil {
			p.body = m
		}
	}
	return p
}

// get returns the first non-empty value among the given keys.
func (p *params) get(keys ...string) string {
	for _, k := range keys {
		if v := p.ctx.FormValue(k); v != "" {
			return v
		}
	}
	for _, k := range keys {
		if v, ok := p.body[k]; ok {
			if s := stringify(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// stringify flattens a JSON body value. Objects and arrays re-marshal so
// a chart definition posted as a JSON object still arrives as one string.
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(raw)
	}
}
