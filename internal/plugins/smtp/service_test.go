package smtp

import (
	"context"
	"net"
	"net/mail"
	"net/textproto"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/keyxmakerx/eventhub/internal/apperror"
	"github.com/keyxmakerx/eventhub/internal/config"
)

// fakeRelay accepts one plain SMTP session and reports the DATA payload.
func fakeRelay(t *testing.T) (host string, port int, received <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	out := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		tp := textproto.NewConn(conn)
		_ = tp.PrintfLine("220 localhost ESMTP")
		for {
			line, err := tp.ReadLine()
			if err != nil {
				return
			}
			switch verb := strings.ToUpper(strings.SplitN(line, " ", 2)[0]); verb {
			case "EHLO", "HELO":
				_ = tp.PrintfLine("250 localhost")
			case "MAIL", "RCPT":
				_ = tp.PrintfLine("250 OK")
			case "DATA":
				_ = tp.PrintfLine("354 go ahead")
				data, err := tp.ReadDotLines()
				if err != nil {
					return
				}
				out <- strings.Join(data, "\n")
				_ = tp.PrintfLine("250 queued")
			case "QUIT":
				_ = tp.PrintfLine("221 bye")
				return
			default:
				_ = tp.PrintfLine("502 not implemented")
			}
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port, out
}

func TestSendMail_Plain(t *testing.T) {
	host, port, received := fakeRelay(t)
	svc := NewSMTPService(config.MailConfig{
		Host:        host,
		Port:        port,
		FromAddress: "hub@example.com",
		FromName:    "Event Hub",
		Encryption:  config.MailNone,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := svc.SendMail(ctx, []string{"ann@example.com"}, "Rappel : Go Night", "Go Night starts at 18:00.\n."); err != nil {
		t.Fatalf("SendMail: %v", err)
	}

	select {
	case msg := <-received:
		for _, want := range []string{
			`From: "Event Hub" <hub@example.com>`,
			"To: ann@example.com",
			"Subject: Rappel : Go Night",
			"Go Night starts at 18:00.",
		} {
			if !strings.Contains(msg, want) {
				t.Errorf("message missing %q:\n%s", want, msg)
			}
		}
	case <-time.After(5 * time.Second):
		t.Fatal("relay received nothing")
	}
}

func TestSendMail_Rejects(t *testing.T) {
	ctx := context.Background()

	unconfigured := NewSMTPService(config.MailConfig{})
	if unconfigured.IsConfigured() {
		t.Error("service without host reports configured")
	}
	err := unconfigured.SendMail(ctx, []string{"ann@example.com"}, "s", "b")
	if !apperror.Is(err, apperror.TypeBadRequest) {
		t.Errorf("unconfigured error = %v", err)
	}

	svc := NewSMTPService(config.MailConfig{Host: "127.0.0.1", Port: 1, Encryption: config.MailNone})
	if err := svc.SendMail(ctx, nil, "s", "b"); !apperror.Is(err, apperror.TypeValidation) {
		t.Errorf("no recipients error = %v", err)
	}
	if err := svc.SendMail(ctx, []string{"not an address"}, "s", "b"); !apperror.Is(err, apperror.TypeValidation) {
		t.Errorf("bad recipient error = %v", err)
	}
}

func TestSendMail_ConnectFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	svc := NewSMTPService(config.MailConfig{Host: "127.0.0.1", Port: port, Encryption: config.MailNone})
	err = svc.SendMail(context.Background(), []string{"ann@example.com"}, "s", "b")
	if err == nil || !strings.Contains(err.Error(), "connecting to 127.0.0.1:"+strconv.Itoa(port)) {
		t.Errorf("err = %v", err)
	}
}

func TestBuildMessage(t *testing.T) {
	from := mail.Address{Name: "Event Hub", Address: "hub@example.com"}
	now := time.Date(2026, time.October, 20, 17, 45, 0, 0, time.UTC)
	msg := buildMessage(from, []string{"a@example.com", "b@example.com"}, "Réunion\r\nBcc: evil@example.com", "line one\nline two", now)

	if strings.Contains(msg, "\r\nBcc:") {
		t.Error("subject line break leaked into headers")
	}
	if !strings.Contains(msg, "Subject: =?utf-8?q?") {
		t.Errorf("non-ASCII subject not encoded:\n%s", msg)
	}
	if !strings.Contains(msg, "To: a@example.com, b@example.com\r\n") {
		t.Errorf("recipients:\n%s", msg)
	}
	if !strings.Contains(msg, "Date: Tue, 20 Oct 2026 17:45:00 +0000\r\n") {
		t.Errorf("date:\n%s", msg)
	}
	if !strings.HasSuffix(msg, "\r\n\r\nline one\r\nline two") {
		t.Errorf("body not CRLF normalized:\n%q", msg)
	}
}
