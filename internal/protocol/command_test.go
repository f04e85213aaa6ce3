package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		msg      string
		wantKind Kind
		wantArg  string
	}{
		{"upload", "UPLOAD: /tmp/a.txt", KindUpload, "/tmp/a.txt"},
		{"upload keeps inner spaces", "UPLOAD: my file.txt", KindUpload, "my file.txt"},
		{"upload trims trailing newline", "UPLOAD: a.txt\n", KindUpload, "a.txt"},
		{"upload trims trailing crlf", "UPLOAD: a.txt\r\n", KindUpload, "a.txt"},
		{"upload empty path", "UPLOAD: ", KindUpload, ""},
		{"download", "DOWNLOAD: /var/log/syslog", KindDownload, "/var/log/syslog"},
		{"exit", "EXIT: ", KindExit, ""},
		{"exit with trailing text", "EXIT: bye", KindExit, ""},
		{"status exact", "STATUS", KindStatus, ""},
		{"status prefix", "STATUS please", KindStatus, ""},
		{"lowercase is unknown", "upload: a.txt", KindUnknown, ""},
		{"missing space is unknown", "UPLOAD:a.txt", KindUnknown, ""},
		{"exit without space is unknown", "EXIT:", KindUnknown, ""},
		{"leading space is unknown", " STATUS", KindUnknown, ""},
		{"empty is unknown", "", KindUnknown, ""},
		{"garbage", "hello there", KindUnknown, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := Parse([]byte(tt.msg))
			assert.Equal(t, tt.wantKind, cmd.Kind)
			assert.Equal(t, tt.wantArg, cmd.Arg)
			assert.Equal(t, tt.msg, cmd.Raw)
		})
	}
}

func TestParse_InvalidUTF8IsReplaced(t *testing.T) {
	cmd := Parse([]byte("UPLOAD: bad\xff\xfename"))
	assert.Equal(t, KindUpload, cmd.Kind)
	assert.Equal(t, "bad\uFFFDname", cmd.Arg)

	cmd = Parse([]byte{0xff, 'S', 'T', 'A', 'T', 'U', 'S'})
	assert.Equal(t, KindUnknown, cmd.Kind)
	assert.Equal(t, "\uFFFDSTATUS", cmd.Raw)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "upload", KindUpload.String())
	assert.Equal(t, "download", KindDownload.String())
	assert.Equal(t, "status", KindStatus.String())
	assert.Equal(t, "exit", KindExit.String())
	assert.Equal(t, "unknown", KindUnknown.String())
	assert.Equal(t, "unknown", Kind(42).String())
}
