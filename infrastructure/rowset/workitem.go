package rowset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Text is a string that also accepts JSON numbers, booleans and null. Rows
// written by older clients carry piece counts and P.O. numbers as either.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	*t = Text(string(b))
	return nil
}

func (t Text) String() string { return string(t) }

// Int parses t as a whole number; anything non-numeric is 0.
func (t Text) Int() int64 {
	s := strings.TrimSpace(string(t))
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f)
	}
	return 0
}

// WorkItem is one order line as it moves through the pipeline. Fields
// accumulate stage by stage; every field except PONo and DesignNo is optional.
//
// Fallback precedence for readers:
//   - pieces: Piece, then Qty, then Quantity, then 0. Quantity comes last
//     because party-order rows carry only the order quantity until a stage
//     records a piece count.
//   - client: ClientName, then PartyName
type WorkItem struct {
	PONo          Text
	DesignNo      Text
	PartyName     Text
	ClientName    Text
	OrderDate     Text
	Quantity      Text
	Piece         Text
	Qty           Text
	Mtr           Text
	Takka         Text
	MatchingNo    Text
	BlouseType    Text
	ChalanNo      Text
	Date          Text
	Image         Text
	CreatedAt     Text
	PDFDownloaded bool
	// SentTo records forward sends, keyed by stage name ("Bleach" for sentToBleach).
	SentTo map[string]bool
	// Extra keeps fields this version does not know so a rewrite does not drop them.
	Extra map[string]json.RawMessage
}

var textFields = []struct {
	name string
	get  func(*WorkItem) *Text
}{
	{"poNo", func(w *WorkItem) *Text { return &w.PONo }},
	{"designNo", func(w *WorkItem) *Text { return &w.DesignNo }},
	{"partyName", func(w *WorkItem) *Text { return &w.PartyName }},
	{"clientName", func(w *WorkItem) *Text { return &w.ClientName }},
	{"orderDate", func(w *WorkItem) *Text { return &w.OrderDate }},
	{"quantity", func(w *WorkItem) *Text { return &w.Quantity }},
	{"piece", func(w *WorkItem) *Text { return &w.Piece }},
	{"qty", func(w *WorkItem) *Text { return &w.Qty }},
	{"mtr", func(w *WorkItem) *Text { return &w.Mtr }},
	{"takka", func(w *WorkItem) *Text { return &w.Takka }},
	{"matchingNo", func(w *WorkItem) *Text { return &w.MatchingNo }},
	{"blouseType", func(w *WorkItem) *Text { return &w.BlouseType }},
	{"chalanNo", func(w *WorkItem) *Text { return &w.ChalanNo }},
	{"date", func(w *WorkItem) *Text { return &w.Date }},
	{"image", func(w *WorkItem) *Text { return &w.Image }},
	{"createdAt", func(w *WorkItem) *Text { return &w.CreatedAt }},
}

const sentToPrefix = "sentTo"

func (w WorkItem) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(textFields)+len(w.SentTo)+len(w.Extra)+1)
	for k, v := range w.Extra {
		out[k] = v
	}
	for _, f := range textFields {
		v := *f.get(&w)
		if v == "" && f.name != "poNo" && f.name != "designNo" {
			continue
		}
		out[f.name] = string(v)
	}
	for stage, sent := range w.SentTo {
		if sent {
			out[sentToPrefix+stage] = true
		}
	}
	if w.PDFDownloaded {
		out["pdfDownloaded"] = true
	}
	return json.Marshal(out)
}

func (w *WorkItem) UnmarshalJSON(b []byte) error {
	raw := make(map[string]json.RawMessage)
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("decode work item: %w", err)
	}
	*w = WorkItem{}
	for _, f := range textFields {
		v, ok := raw[f.name]
		if !ok {
			continue
		}
		if err := f.get(w).UnmarshalJSON(v); err != nil {
			return fmt.Errorf("decode work item %s: %w", f.name, err)
		}
		delete(raw, f.name)
	}
	if v, ok := raw["pdfDownloaded"]; ok {
		w.PDFDownloaded = truthy(v)
		delete(raw, "pdfDownloaded")
	}
	for k, v := range raw {
		if strings.HasPrefix(k, sentToPrefix) && len(k) > len(sentToPrefix) {
			if w.SentTo == nil {
				w.SentTo = make(map[string]bool)
			}
			w.SentTo[k[len(sentToPrefix):]] = truthy(v)
			delete(raw, k)
		}
	}
	if len(raw) > 0 {
		w.Extra = raw
	}
	return nil
}

func truthy(v json.RawMessage) bool {
	var b bool
	if err := json.Unmarshal(v, &b); err == nil {
		return b
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return strings.EqualFold(strings.TrimSpace(s), "true")
	}
	return false
}

// Key is the row identity, see KeyOf.
func (w WorkItem) Key() string { return KeyOf(w) }

// PieceText is the raw piece cell after the fallback chain; empty when no
// field is set.
func (w WorkItem) PieceText() Text {
	for _, t := range []Text{w.Piece, w.Qty, w.Quantity} {
		if strings.TrimSpace(string(t)) != "" {
			return t
		}
	}
	return ""
}

// Pieces is PieceText as a whole number.
func (w WorkItem) Pieces() int64 {
	return w.PieceText().Int()
}

// Client applies the client fallback chain.
func (w WorkItem) Client() string {
	if c := strings.TrimSpace(string(w.ClientName)); c != "" {
		return c
	}
	return strings.TrimSpace(string(w.PartyName))
}

// IsSentTo reports whether the row was forwarded to stage.
func (w WorkItem) IsSentTo(stage string) bool {
	return w.SentTo[stage]
}

// MarkSentTo sets the sentTo<stage> flag.
func (w *WorkItem) MarkSentTo(stage string) {
	if w.SentTo == nil {
		w.SentTo = make(map[string]bool)
	}
	w.SentTo[stage] = true
}

// Clone returns a deep copy.
func (w WorkItem) Clone() WorkItem {
	out := w
	if w.SentTo != nil {
		out.SentTo = make(map[string]bool, len(w.SentTo))
		for k, v := range w.SentTo {
			out.SentTo[k] = v
		}
	}
	if w.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(w.Extra))
		for k, v := range w.Extra {
			out.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out
}
