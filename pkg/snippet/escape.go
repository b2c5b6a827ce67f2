package snippet

import (
	"bytes"
	"encoding/json"
	"strings"
)

// jsonString returns s encoded as the body of a JSON string literal, without the quotes.
func jsonString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return ""
	}
	out := strings.TrimSuffix(buf.String(), "\n")
	return out[1 : len(out)-1]
}

// sqlString doubles single quotes for use inside a SQL '...' literal.
func sqlString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

var shellReplacer = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	`$`, `\$`,
	"`", "\\`",
	"\r\n", " ",
	"\n", " ",
	"\r", " ",
)

// shellDouble escapes s for a POSIX double-quoted word. Line breaks become spaces
// so a header stays on one line.
func shellDouble(s string) string {
	return shellReplacer.Replace(s)
}

var jsReplacer = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	"\n", `\n`,
	"\r", `\r`,
	"\u2028", `\u2028`,
	"\u2029", `\u2029`,
)

// jsSingle escapes s for a JavaScript '...' literal.
func jsSingle(s string) string {
	return jsReplacer.Replace(s)
}

var cnfReplacer = strings.NewReplacer(
	`\`, `\\`,
	`#`, `\#`,
	`$`, `\$`,
	"\r\n", " ",
	"\n", " ",
	"\r", " ",
)

// cnfValue keeps an OpenSSL config value on a single line and escapes the
// comment and variable markers.
func cnfValue(s string) string {
	return cnfReplacer.Replace(s)
}
