// Package dicomid recovers the job identifier that the anonymization engine
// embeds in each DICOM file it handles.
//
// The id lives in a private tag: the creator string "RADBOUDUMCANONYMIZER"
// reserves a block in group 0x0075 and element 0x27 of that block holds the
// job id as a string. Quarantine folders routinely contain malformed or
// foreign files, so lookup never fails: anything unreadable is simply "no
// job".
package dicomid

import (
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom"
)

// PrivateCreator is the creator string reserving the private block that
// carries the job id.
const PrivateCreator = "RADBOUDUMCANONYMIZER"

const (
	privateGroup = 0x0075
	jobIDElement = 0x27
)

// JobID reads the embedded job id from the DICOM file at path. It returns
// ok=false when the file is not parseable DICOM, the private block is absent,
// or the id value does not parse as a positive integer.
func JobID(path string) (int64, bool) {
	ds, err := dicom.ParseFile(path, nil)
	if err != nil {
		return 0, false
	}

	// The creator element's number is the block the data elements live in:
	// creator at (0075,00xx) puts the job id at (0075,xx27).
	var blocks []uint16
	for _, el := range ds.Elements {
		if el.Tag.Group != privateGroup {
			continue
		}
		if el.Tag.Element < 0x0010 || el.Tag.Element > 0x00FF {
			continue
		}
		if firstString(el.Value.GetValue()) == PrivateCreator {
			blocks = append(blocks, el.Tag.Element)
		}
	}

	for _, block := range blocks {
		want := block<<8 | jobIDElement
		for _, el := range ds.Elements {
			if el.Tag.Group != privateGroup || el.Tag.Element != want {
				continue
			}
			raw := strings.TrimFunc(firstString(el.Value.GetValue()), func(r rune) bool {
				return r == ' ' || r == 0
			})
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				return 0, false
			}
			return id, true
		}
	}
	return 0, false
}

func firstString(value any) string {
	switch v := value.(type) {
	case []string:
		if len(v) > 0 {
			return strings.TrimRight(v[0], "\x00 ")
		}
	case string:
		return strings.TrimRight(v, "\x00 ")
	}
	return ""
}
