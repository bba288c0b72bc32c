package parse

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	"code.sajari.com/docconv/v2"

	"github.com/hyperifyio/goextract/internal/mediatype"
	"github.com/hyperifyio/goextract/internal/metadata"
)

// docconv reports some dates as Unix seconds; they are re-keyed to their
// Dublin Core names in RFC 3339 so the normalizer treats them like any other
// engine's dates.
var docconvDates = map[string]string{
	"CreatedDate":  "dcterms:created",
	"ModifiedDate": "dcterms:modified",
}

// docconv keys DOCX core properties by element local name, dropping the
// namespace prefix.
var docconvNames = map[string]string{
	"creator":        "dc:creator",
	"lastModifiedBy": "cp:lastModifiedBy",
}

func parseOffice(data []byte, base string) (*Document, error) {
	var (
		text string
		meta map[string]string
		err  error
	)
	r := bytes.NewReader(data)
	err = guard(func() error {
		var err error
		switch base {
		case mediatype.Docx:
			text, meta, err = docconv.ConvertDocx(r)
		case mediatype.ODT:
			text, meta, err = docconv.ConvertODT(r)
		case mediatype.RTF:
			text, meta, err = docconv.ConvertRTF(r)
		case mediatype.Pages:
			text, meta, err = docconv.ConvertPages(r)
		default:
			text, meta, err = docconv.ConvertXML(r)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	raw := metadata.Raw{}
	for k, v := range meta {
		if dc, ok := docconvDates[k]; ok {
			if secs, perr := strconv.ParseInt(strings.TrimSpace(v), 10, 64); perr == nil {
				raw.Set(dc, time.Unix(secs, 0).UTC().Format(time.RFC3339))
				continue
			}
		}
		if name, ok := docconvNames[k]; ok {
			k = name
		}
		raw.Set(k, v)
	}
	raw.Set("Content-Type", base)
	return &Document{Sections: paragraphs(text), Meta: raw}, nil
}

// paragraphs splits plain text on blank lines.
func paragraphs(text string) []Section {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []Section
	for _, block := range strings.Split(text, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		out = append(out, Section{Text: block, Type: SectionParagraph})
	}
	return out
}
