package sl

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"
)

func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{Key: "error", Value: slog.StringValue("")}
	}
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Secret returns a string with the first 5 characters of the input string
// used to hide sensitive information in logs
func Secret(key, value string) slog.Attr {
	r := "***"
	if len(value) > 5 {
		r = fmt.Sprintf("%s***", value[0:5])
	}
	if value == "" {
		r = "?"
	}
	return slog.Attr{
		Key:   key,
		Value: slog.StringValue(r),
	}
}

// Email keeps the domain and the first letter of the local part: "a***@example.com"
func Email(value string) slog.Attr {
	r := "?"
	if at := strings.LastIndex(value, "@"); at > 0 {
		first, _ := utf8.DecodeRuneInString(value)
		r = string(first) + "***" + value[at:]
	} else if value != "" {
		r = "***"
	}
	return slog.Attr{
		Key:   "email",
		Value: slog.StringValue(r),
	}
}

func Module(mod string) slog.Attr {
	return slog.Attr{
		Key:   "mod",
		Value: slog.StringValue(mod),
	}
}
