package protocol

import (
	"strings"
)

// Command prefixes, matched case-sensitively in this order.
const (
	PrefixUpload   = "UPLOAD: "
	PrefixDownload = "DOWNLOAD: "
	PrefixExit     = "EXIT: "
	PrefixStatus   = "STATUS"
)

// Kind identifies which handler a command routes to.
type Kind int

const (
	KindUnknown Kind = iota
	KindUpload
	KindDownload
	KindStatus
	KindExit
)

var kindNames = map[Kind]string{
	KindUnknown:  "unknown",
	KindUpload:   "upload",
	KindDownload: "download",
	KindStatus:   "status",
	KindExit:     "exit",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Command is one parsed inbound message.
type Command struct {
	Kind Kind
	// Arg is the path for upload and download, empty otherwise.
	Arg string
	// Raw is the decoded message text, kept for logging unknown input.
	Raw string
}

// Parse classifies one inbound message. Invalid UTF-8 is replaced rather
// than rejected.
func Parse(msg []byte) Command {
	raw := strings.ToValidUTF8(string(msg), "\uFFFD")

	switch {
	case strings.HasPrefix(raw, PrefixUpload):
		return Command{Kind: KindUpload, Arg: trimLineEnd(raw[len(PrefixUpload):]), Raw: raw}
	case strings.HasPrefix(raw, PrefixDownload):
		return Command{Kind: KindDownload, Arg: trimLineEnd(raw[len(PrefixDownload):]), Raw: raw}
	case strings.HasPrefix(raw, PrefixExit):
		return Command{Kind: KindExit, Raw: raw}
	case strings.HasPrefix(raw, PrefixStatus):
		return Command{Kind: KindStatus, Raw: raw}
	default:
		return Command{Kind: KindUnknown, Raw: raw}
	}
}

// trimLineEnd drops one trailing "\n" or "\r\n". Legacy peers often send the
// path with the line break that ended their input.
func trimLineEnd(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}
