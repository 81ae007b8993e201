package notify

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"mime"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/zjrosen/promoter/internal/promotion"
	"github.com/zjrosen/promoter/internal/templates"
)

// EmailConfig configures SMTP delivery.
type EmailConfig struct {
	Host       string   `mapstructure:"host"`
	Port       int      `mapstructure:"port"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	From       string   `mapstructure:"from"`
	Recipients []string `mapstructure:"recipients"`
}

// Validate reports missing SMTP settings.
func (c EmailConfig) Validate() error {
	if c.Host == "" {
		return errors.New("smtp host is required")
	}
	if c.From == "" {
		return errors.New("email sender is required")
	}
	if len(c.Recipients) == 0 {
		return errors.New("at least one email recipient is required")
	}
	return nil
}

// sendFunc matches smtp.SendMail.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Email sends an HTML report with the run log attached.
type Email struct {
	cfg    EmailConfig
	runLog string
	send   sendFunc
	now    func() time.Time
}

// NewEmail creates an email notifier. runLog is attached when it exists.
func NewEmail(cfg EmailConfig, runLog string) *Email {
	if cfg.Port == 0 {
		cfg.Port = 25
	}
	return &Email{cfg: cfg, runLog: runLog, send: smtp.SendMail, now: time.Now}
}

// Notify implements promotion.Notifier.
func (e *Email) Notify(_ context.Context, report promotion.RunReport) error {
	msg, err := e.Message(report)
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if e.cfg.Username != "" {
		auth = smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.Host)
	}
	addr := net.JoinHostPort(e.cfg.Host, strconv.Itoa(e.cfg.Port))
	if err := e.send(addr, auth, e.cfg.From, e.cfg.Recipients, msg); err != nil {
		return fmt.Errorf("sending email via %s: %w", addr, err)
	}
	return nil
}

// Message builds the full MIME message for report.
func (e *Email) Message(report promotion.RunReport) ([]byte, error) {
	body, err := renderEmailBody(report)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", e.cfg.From)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(e.cfg.Recipients, ", "))
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", Subject(report)))
	fmt.Fprintf(&buf, "Date: %s\r\n", e.now().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mw.Boundary())

	html, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/html; charset=utf-8"},
		"Content-Transfer-Encoding": {"base64"},
	})
	if err != nil {
		return nil, err
	}
	if err := writeBase64(html, body); err != nil {
		return nil, err
	}

	if e.runLog != "" {
		data, err := os.ReadFile(e.runLog)
		switch {
		case err == nil:
			att, err := mw.CreatePart(textproto.MIMEHeader{
				"Content-Type":              {"text/plain; charset=utf-8"},
				"Content-Transfer-Encoding": {"base64"},
				"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": filepath.Base(e.runLog)})},
			})
			if err != nil {
				return nil, err
			}
			if err := writeBase64(att, data); err != nil {
				return nil, err
			}
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("reading run log: %w", err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeBase64 writes data base64 encoded in 76 character lines.
func writeBase64(w io.Writer, data []byte) error {
	enc := base64.StdEncoding.EncodeToString(data)
	for len(enc) > 76 {
		if _, err := w.Write([]byte(enc[:76] + "\r\n")); err != nil {
			return err
		}
		enc = enc[76:]
	}
	_, err := w.Write([]byte(enc + "\r\n"))
	return err
}

var rowColors = map[string]string{
	RowSuccess:       "#d4edda",
	RowDryRunSuccess: "#fff3cd",
	RowFailure:       "#f8d7da",
}

var emailTemplate = template.Must(template.New("email.html.tmpl").Funcs(template.FuncMap{
	"rowColor": func(status string) string {
		if c, ok := rowColors[status]; ok {
			return c
		}
		return "#e2e3e5"
	},
}).ParseFS(templates.NotifyFS(), templates.EmailReport))

func renderEmailBody(report promotion.RunReport) ([]byte, error) {
	s := Summarize(report)
	data := struct {
		S       Summary
		Color   string
		TagLine string
		DryRun  string
	}{S: s, Color: "#007bff", TagLine: "Image Promotion Completed", DryRun: yesNo(s.DryRun)}
	if s.JobStatus != JobSuccess {
		data.Color = "#dc3545"
		data.TagLine = "Image Promotion Failed"
	}

	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("rendering email: %w", err)
	}
	return buf.Bytes(), nil
}
