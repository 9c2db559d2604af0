// Package templates provides email template components
package templates

import (
	"bytes"
	"html/template"
	"log"
	"time"
)

type ButtonProps struct {
	Text            string
	URL             string
	BackgroundColor string
	TextColor       string
}

var (
	buttonTemplate = template.Must(template.New("emailButton").Parse(`
    <table role="presentation" border="0" cellpadding="0" cellspacing="0" class="btn btn-primary" style="border-collapse: separate; box-sizing: border-box; width: 100%; min-width: 100%;" width="100%">
      <tbody>
        <tr>
          <td align="left" style="font-family: Helvetica, sans-serif; font-size: 16px; vertical-align: top; padding-bottom: 16px;" valign="top">
            <table role="presentation" border="0" cellpadding="0" cellspacing="0" style="border-collapse: separate; width: auto;">
              <tbody>
                <tr>
                  <td style="font-family: Helvetica, sans-serif; font-size: 16px; vertical-align: top; border-radius: 4px; text-align: center; background-color: {{.BackgroundColor}};" valign="top" align="center" bgcolor="{{.BackgroundColor}}">
                    <a href="{{.URL}}" target="_blank" style="border: solid 2px {{.BackgroundColor}}; border-radius: 4px; box-sizing: border-box; cursor: pointer; display: inline-block; font-size: 16px; font-weight: bold; margin: 0; padding: 12px 24px; text-decoration: none; background-color: {{.BackgroundColor}}; border-color: {{.BackgroundColor}}; color: {{.TextColor}};">{{.Text}}</a>
                  </td>
                </tr>
              </tbody>
            </table>
          </td>
        </tr>
      </tbody>
    </table>`))

	paragraphTemplate = template.Must(template.New("emailParagraph").Parse(`<p style="font-family: Helvetica, sans-serif; font-size: 16px; font-weight: normal; margin: 0; margin-bottom: 16px;">{{.}}</p>`))
)

func GetButton(props ButtonProps) string {
	if props.BackgroundColor == "" {
		props.BackgroundColor = "#0867ec"
	}
	if props.TextColor == "" {
		props.TextColor = "#ffffff"
	}

	var buf bytes.Buffer
	if err := buttonTemplate.Execute(&buf, props); err != nil {
		log.Printf("Error executing email button template: %v", err)
		return ""
	}
	return buf.String()
}

func GetParagraph(text string) string {
	var buf bytes.Buffer
	if err := paragraphTemplate.Execute(&buf, text); err != nil {
		log.Printf("Error executing email paragraph template: %v", err)
		return ""
	}
	return buf.String()
}

// WhitepaperLinkProps carries the content for the download confirmation email.
type WhitepaperLinkProps struct {
	WhitepaperTitle string
	LinkURL         string
	ExpiresAt       time.Time
}

// GetWhitepaperLinkContent composes the body of the download confirmation email.
func GetWhitepaperLinkContent(props WhitepaperLinkProps) string {
	var buf bytes.Buffer
	buf.WriteString(GetParagraph("Thank you for your interest in \"" + props.WhitepaperTitle + "\"."))
	buf.WriteString(GetParagraph("Your personal download link is ready. It stays valid until " +
		props.ExpiresAt.UTC().Format("January 2, 2006") + "."))
	buf.WriteString(GetButton(ButtonProps{
		Text: "Download whitepaper",
		URL:  props.LinkURL,
	}))
	buf.WriteString(GetParagraph("If the button does not work, copy this address into your browser: " + props.LinkURL))
	return buf.String()
}
