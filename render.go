package golpo

import (
	"context"
	"io"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// RenderStatus writes a templ component with a specific HTTP status code.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}

// statusPage is the minimal Bangla page shown for errors the build does
// not cover.
func statusPage(siteName, heading, message string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<!doctype html><html lang="bn"><head><meta charset="utf-8">`+
			`<meta name="robots" content="noindex"><title>`+
			templ.EscapeString(heading+" | "+siteName)+`</title></head><body><main><h1>`+
			templ.EscapeString(heading)+`</h1><p>`+
			templ.EscapeString(message)+`</p><p><a href="/">প্রথম পাতায় ফিরে যান</a></p></main></body></html>`)
		return err
	})
}

func notFoundPage(siteName string) templ.Component {
	return statusPage(siteName, "পাতাটি পাওয়া যায়নি", "আপনি যে পাতাটি খুঁজছেন সেটি নেই বা সরিয়ে ফেলা হয়েছে।")
}

func serverErrorPage(siteName string) templ.Component {
	return statusPage(siteName, "কিছু একটা ভুল হয়েছে", "একটু পরে আবার চেষ্টা করুন।")
}
