package mail

import (
	"bytes"
	"context"
	"html/template"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateRendersBody(t *testing.T) {
	tmpl := template.Must(template.New("placed").Parse(`<p>Order {{.Code}} for {{.Name}}</p>`))

	msg := To("ada@example.com").Subject("Order received").Template(tmpl, map[string]string{
		"Code": "ORD-1234ABCD",
		"Name": "<Ada>",
	})

	require.NoError(t, msg.validate())
	assert.Equal(t, "<p>Order ORD-1234ABCD for &lt;Ada&gt;</p>", msg.GetHTML())
}

func TestTemplateErrorSurfacesOnSend(t *testing.T) {
	tmpl := template.Must(template.New("bad").Parse(`{{.Missing.Field}}`))
	msg := To("ada@example.com").Subject("x").Template(tmpl, struct{}{})

	err := NewLog().Send(context.Background(), msg)
	assert.ErrorContains(t, err, "mail: render bad")
}

func TestValidateNeedsRecipientAndSubject(t *testing.T) {
	assert.ErrorContains(t, To().Subject("hi").validate(), "no recipients")
	assert.ErrorContains(t, To("a@b.c").validate(), "empty subject")
}

func TestLogMailerRecords(t *testing.T) {
	l := NewLog()
	msg := To("ada@example.com").Subject("Status update").Text("ready").Embed("qr.png", []byte{0x89, 'P', 'N', 'G'})

	require.NoError(t, l.Send(context.Background(), msg))

	sent := l.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"ada@example.com"}, sent[0].Recipients())
	require.Len(t, sent[0].Parts(), 1)
	assert.True(t, sent[0].Parts()[0].Inline)
}

func TestSMTPBuildProducesMultipart(t *testing.T) {
	s := NewSMTP("localhost", 1025, "", "", "orders@cherrydine.local", "CherryDine")
	msg := To("ada@example.com").
		Subject("Your order").
		HTML(`<img src="cid:qr.png">`).
		Text("plain").
		Embed("qr.png", []byte("png-bytes"))

	var buf bytes.Buffer
	_, err := s.build(msg).WriteTo(&buf)
	require.NoError(t, err)

	raw := buf.String()
	assert.Contains(t, raw, "From: CherryDine <orders@cherrydine.local>")
	assert.Contains(t, raw, "Subject: Your order")
	assert.Contains(t, raw, "Content-ID: <qr.png>")
	assert.Contains(t, raw, "text/html")
}
