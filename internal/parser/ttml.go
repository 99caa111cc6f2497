package parser

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/subweaver/subweaver/internal/cue"
	"github.com/subweaver/subweaver/internal/logging"
	"github.com/subweaver/subweaver/internal/timecode"
)

// attribute names tried in priority order; YouTube's timedtext dialect uses
// the single-letter forms
var (
	ttmlBeginAttrs = []string{"begin", "start", "t"}
	ttmlDurAttrs   = []string{"dur", "d"}
)

// XML/TTML parser covering the subset YouTube and common DFXP files use
type TTMLParser struct {
	log *logging.Logger
}

func NewTTML(log *logging.Logger) *TTMLParser {
	return &TTMLParser{log: log}
}

// element tree with text and element children kept in document order, so
// <br/> placement inside a paragraph survives extraction
type ttmlNode struct {
	name  xml.Name
	attrs []xml.Attr
	kids  []any // string or *ttmlNode
}

// Parse decodes the payload as XML and emits one cue per timed element.
// An XML parse failure is fatal and yields an empty result with an error;
// individual bad elements are skipped with a diagnostic.
func (p *TTMLParser) Parse(content string) ([]cue.Cue, error) {
	if strings.TrimSpace(content) == "" {
		p.log.Warnw("Empty TTML payload")
		return []cue.Cue{}, nil
	}

	root, err := decodeTTMLTree(content)
	if err != nil {
		p.log.Warnw("TTML payload is not well-formed XML", "error", err)
		return []cue.Cue{}, fmt.Errorf("parse TTML: %w", err)
	}

	// body-like root: a body element anywhere (prefixed or not), else the
	// document root itself
	body := findElement(root, "body")
	if body == nil {
		body = root
	}

	cues := []cue.Cue{}
	p.collectTimed(body, &cues)
	return cues, nil
}

// collectTimed walks the tree in document order emitting cues for elements
// that carry a begin/start timing attribute. A timed element's subtree
// belongs to its text, so the walk does not descend into it.
func (p *TTMLParser) collectTimed(n *ttmlNode, cues *[]cue.Cue) {
	if beginAttr, ok := firstAttr(n.attrs, ttmlBeginAttrs); ok {
		if c, ok := p.timedElementCue(n, beginAttr); ok {
			*cues = append(*cues, c)
		}
		return
	}
	for _, kid := range n.kids {
		if el, ok := kid.(*ttmlNode); ok {
			p.collectTimed(el, cues)
		}
	}
}

func (p *TTMLParser) timedElementCue(n *ttmlNode, beginAttr string) (cue.Cue, bool) {
	text := strings.TrimSpace(decodeEntities(extractText(n)))
	if beginAttr == "" || text == "" {
		return cue.Cue{}, false
	}

	startTime := p.parseTime(beginAttr)

	var endTime float64
	if endAttr, ok := firstAttr(n.attrs, []string{"end"}); ok && endAttr != "" {
		endTime = p.parseTime(endAttr)
	} else if durAttr, ok := firstAttr(n.attrs, ttmlDurAttrs); ok && durAttr != "" {
		endTime = startTime + p.parseTime(durAttr)
	} else {
		p.log.Warnw("Skipping timed element without end or dur attribute", "begin", beginAttr)
		return cue.Cue{}, false
	}

	if startTime >= endTime {
		p.log.Warnw("Skipping timed element with zero or negative duration",
			"begin", beginAttr, "start", startTime, "end", endTime, "text", text)
		return cue.Cue{}, false
	}

	return cue.Cue{
		ID:           cue.NewID(),
		StartTime:    startTime,
		EndTime:      endTime,
		OriginalText: text,
	}, true
}

// parseTime degrades to zero on malformed input; the caller's validity
// checks discard the cue
func (p *TTMLParser) parseTime(s string) float64 {
	secs, err := timecode.Parse(s, timecode.DialectTTML)
	if err != nil {
		p.log.Warnw("Unparseable TTML timecode", "value", s)
		return 0
	}
	return secs
}

func decodeTTMLTree(content string) (*ttmlNode, error) {
	decoder := xml.NewDecoder(strings.NewReader(content))

	var root *ttmlNode
	var stack []*ttmlNode

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &ttmlNode{name: t.Name, attrs: append([]xml.Attr(nil), t.Attr...)}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("multiple document roots")
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.kids = append(parent.kids, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("unbalanced end element %s", t.Name.Local)
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.kids = append(parent.kids, string(t))
			}
		}
	}

	if root == nil {
		return nil, fmt.Errorf("no root element")
	}
	if len(stack) != 0 {
		return nil, fmt.Errorf("unclosed element %s", stack[len(stack)-1].name.Local)
	}
	return root, nil
}

// findElement returns the first element with the given local name, matching
// both plain and namespace-prefixed spellings.
func findElement(n *ttmlNode, local string) *ttmlNode {
	if strings.EqualFold(n.name.Local, local) {
		return n
	}
	for _, kid := range n.kids {
		if el, ok := kid.(*ttmlNode); ok {
			if found := findElement(el, local); found != nil {
				return found
			}
		}
	}
	return nil
}

// firstAttr tries candidate attribute names in priority order.
func firstAttr(attrs []xml.Attr, names []string) (string, bool) {
	for _, name := range names {
		for _, a := range attrs {
			if a.Name.Local == name {
				return a.Value, true
			}
		}
	}
	return "", false
}

// extractText concatenates a timed element's content: character data
// verbatim, br elements as a newline, and any other child element's text
// content appended as-is.
func extractText(n *ttmlNode) string {
	var sb strings.Builder
	for _, kid := range n.kids {
		switch k := kid.(type) {
		case string:
			sb.WriteString(k)
		case *ttmlNode:
			if strings.EqualFold(k.name.Local, "br") {
				sb.WriteString("\n")
			} else {
				sb.WriteString(allText(k))
			}
		}
	}
	return sb.String()
}

func allText(n *ttmlNode) string {
	var sb strings.Builder
	for _, kid := range n.kids {
		switch k := kid.(type) {
		case string:
			sb.WriteString(k)
		case *ttmlNode:
			sb.WriteString(allText(k))
		}
	}
	return sb.String()
}

// decodeEntities applies a second decode pass for the standard XML
// entities; YouTube caption payloads are frequently double-encoded.
func decodeEntities(s string) string {
	s = strings.ReplaceAll(s, "&#39;", "'")
	s = strings.ReplaceAll(s, "&quot;", `"`)
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&amp;", "&")
	return s
}
