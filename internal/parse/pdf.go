package parse

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/goextract/internal/mediatype"
	"github.com/hyperifyio/goextract/internal/metadata"
)

// infoKeys are the document information dictionary entries carried into raw
// metadata under their Info dictionary names.
var infoKeys = []string{"Title", "Author", "Subject", "Keywords", "Creator", "Producer", "CreationDate", "ModDate"}

// parsePDF extracts one section per non-empty page. Document info is read
// from the trailer Info dictionary; pdfcpu fills entries the text reader could
// not resolve (object streams, damaged xref tables).
func parsePDF(data []byte) (*Document, error) {
	doc := &Document{Meta: metadata.Raw{}}

	var r *pdf.Reader
	err := guard(func() error {
		var err error
		r, err = pdf.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return fmt.Errorf("open pdf: %w", err)
		}
		for i := 1; i <= r.NumPage(); i++ {
			page := r.Page(i)
			if page.V.IsNull() {
				continue
			}
			text, err := page.GetPlainText(nil)
			if err != nil {
				log.Debug().Err(err).Int("page", i).Msg("pdf page text failed; skipping page")
				continue
			}
			text = strings.TrimSpace(text)
			if text == "" {
				continue
			}
			doc.Sections = append(doc.Sections, Section{
				Text:     text,
				Type:     SectionPage,
				Metadata: map[string]string{"page": strconv.Itoa(i)},
			})
		}
		doc.Meta.Set("xmpTPg:NPages", strconv.Itoa(r.NumPage()))
		return nil
	})
	if err != nil {
		return nil, err
	}

	info := trailerInfo(r)
	if missingInfo(info) {
		extra, err := pdfcpuInfo(data)
		if err != nil {
			log.Debug().Err(err).Msg("pdfcpu info failed; keeping trailer info")
		}
		for k, v := range extra {
			if strings.TrimSpace(info[k]) == "" {
				info[k] = v
			}
		}
	}
	for _, k := range infoKeys {
		doc.Meta.Set(k, info[k])
	}
	doc.Meta.Set("title", info["Title"])
	doc.Meta.Set("Content-Type", mediatype.PDF)
	return doc, nil
}

func pdfcpuInfo(data []byte) (map[string]string, error) {
	out := map[string]string{}
	err := guard(func() error {
		conf := model.NewDefaultConfiguration()
		ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
		if err != nil {
			return fmt.Errorf("pdfcpu read: %w", err)
		}
		out["Title"] = ctx.XRefTable.Title
		out["Author"] = ctx.XRefTable.Author
		out["Subject"] = ctx.XRefTable.Subject
		out["Creator"] = ctx.XRefTable.Creator
		out["Producer"] = ctx.XRefTable.Producer
		out["CreationDate"] = ctx.XRefTable.CreationDate
		out["ModDate"] = ctx.XRefTable.ModDate
		return nil
	})
	return out, err
}

func missingInfo(info map[string]string) bool {
	for _, k := range []string{"Title", "Author", "CreationDate"} {
		if strings.TrimSpace(info[k]) == "" {
			return true
		}
	}
	return false
}

func trailerInfo(r *pdf.Reader) map[string]string {
	out := map[string]string{}
	if r == nil {
		return out
	}
	_ = guard(func() error {
		info := r.Trailer().Key("Info")
		if info.IsNull() {
			return nil
		}
		for _, k := range infoKeys {
			if v := info.Key(k); !v.IsNull() {
				out[k] = v.Text()
			}
		}
		return nil
	})
	return out
}
