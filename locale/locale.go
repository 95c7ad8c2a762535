package locale

import (
	"fmt"
	"strings"
)

// Formatter renders localized failure messages for message keys. params
// provides the values referenced by ${name} placeholders (for example
// "path", "min", "type").
type Formatter interface {
	Message(key string, params map[string]any) string
}

// dictFormatter is the built-in dictionary-based Formatter.
type dictFormatter struct{ lang string }

var enMessages = map[string]string{
	"required":   "${path} is a required field",
	"nullable":   "${path} must not be null",
	"typeError":  "${path} must be a `${type}` type",
	"array.min":  "${path} must have at least ${min} items",
	"array.max":  "${path} must have less than or equal to ${max} items",
	"number.min": "${path} must be greater than or equal to ${min}",
	"number.max": "${path} must be less than or equal to ${max}",
}

var jaMessages = map[string]string{
	"required":   "${path} は必須です",
	"nullable":   "${path} は null にできません",
	"typeError":  "${path} は `${type}` 型である必要があります",
	"array.min":  "${path} は ${min} 個以上の要素が必要です",
	"array.max":  "${path} は ${max} 個以下の要素にしてください",
	"number.min": "${path} は ${min} 以上である必要があります",
	"number.max": "${path} は ${max} 以下である必要があります",
}

func (f dictFormatter) Message(key string, params map[string]any) string {
	table := enMessages
	if f.lang == "ja" {
		table = jaMessages
	}
	tmpl, ok := table[key]
	if !ok {
		return key
	}
	return Interpolate(tmpl, params)
}

var currentFormatter Formatter = dictFormatter{lang: "en"}

// SetLanguage switches the built-in Formatter language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	currentFormatter = dictFormatter{lang: lang}
}

// SetFormatter replaces the Formatter implementation (not limited to the
// dictionary version). A nil Formatter restores the default.
func SetFormatter(f Formatter) {
	if f == nil {
		currentFormatter = dictFormatter{lang: "en"}
		return
	}
	currentFormatter = f
}

// T fetches a message for the given key using the current Formatter.
func T(key string, params map[string]any) string {
	return currentFormatter.Message(key, params)
}

// Interpolate substitutes ${name} placeholders in tmpl from params. Unknown
// placeholders are kept verbatim so mistakes stay visible.
func Interpolate(tmpl string, params map[string]any) string {
	if !strings.Contains(tmpl, "${") {
		return tmpl
	}
	b := &strings.Builder{}
	for {
		start := strings.Index(tmpl, "${")
		if start < 0 {
			b.WriteString(tmpl)
			break
		}
		end := strings.Index(tmpl[start:], "}")
		if end < 0 {
			b.WriteString(tmpl)
			break
		}
		end += start
		b.WriteString(tmpl[:start])
		name := tmpl[start+2 : end]
		if v, ok := params[name]; ok {
			fmt.Fprintf(b, "%v", v)
		} else {
			b.WriteString(tmpl[start : end+1])
		}
		tmpl = tmpl[end+1:]
	}
	return b.String()
}
