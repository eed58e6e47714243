package testsupport

import (
	"bytes"
	"encoding/binary"
	"strconv"
	"testing"

	"anonpipe/internal/dicomid"
)

// WriteDICOM creates a minimal explicit-VR little-endian DICOM file carrying
// the anonymizer's private creator block and the given job id.
func WriteDICOM(t testing.TB, path string, jobID int64) {
	t.Helper()
	WriteFile(t, path, dicomBytes(t, &jobID))
}

// WriteDICOMWithoutJobID creates a valid DICOM file that carries no private
// job id tag at all.
func WriteDICOMWithoutJobID(t testing.TB, path string) {
	t.Helper()
	WriteFile(t, path, dicomBytes(t, nil))
}

func dicomBytes(t testing.TB, jobID *int64) []byte {
	t.Helper()

	meta := &bytes.Buffer{}
	writeElement(t, meta, 0x0002, 0x0002, "UI", padUID("1.2.840.10008.5.1.4.1.1.7"))
	writeElement(t, meta, 0x0002, 0x0003, "UI", padUID("1.2.826.0.1.3680043.9.7.1"))
	writeElement(t, meta, 0x0002, 0x0010, "UI", padUID("1.2.840.10008.1.2.1"))

	buf := &bytes.Buffer{}
	buf.Write(make([]byte, 128))
	buf.WriteString("DICM")

	// File meta group length element, then the meta elements it covers.
	groupLength := make([]byte, 4)
	binary.LittleEndian.PutUint32(groupLength, uint32(meta.Len()))
	writeElement(t, buf, 0x0002, 0x0000, "UL", groupLength)
	buf.Write(meta.Bytes())

	writeElement(t, buf, 0x0075, 0x0010, "LO", []byte(dicomid.PrivateCreator))
	if jobID != nil {
		writeElement(t, buf, 0x0075, 0x1027, "LO", padText(strconv.FormatInt(*jobID, 10)))
	}
	return buf.Bytes()
}

// writeElement emits one short-form explicit-VR element.
func writeElement(t testing.TB, buf *bytes.Buffer, group, element uint16, vr string, value []byte) {
	t.Helper()
	if len(value)%2 != 0 {
		t.Fatalf("dicom element (%04x,%04x) value length %d is odd", group, element, len(value))
	}
	header := make([]byte, 8)
	binary.LittleEndian.PutUint16(header[0:], group)
	binary.LittleEndian.PutUint16(header[2:], element)
	copy(header[4:], vr)
	binary.LittleEndian.PutUint16(header[6:], uint16(len(value)))
	buf.Write(header)
	buf.Write(value)
}

func padUID(uid string) []byte {
	if len(uid)%2 != 0 {
		uid += "\x00"
	}
	return []byte(uid)
}

func padText(text string) []byte {
	if len(text)%2 != 0 {
		text += " "
	}
	return []byte(text)
}
