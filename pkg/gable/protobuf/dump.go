package protobuf

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protowire"
)

// Dump writes a readable listing of wire-encoded table bytes to w. Field 1
// at the top level is decoded as a nested record.
func Dump(w io.Writer, data []byte) error {
	return dump(w, data, 0)
}

func dump(w io.Writer, b []byte, depth int) error {
	indent := strings.Repeat("  ", depth)
	record := 0
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return fmt.Errorf("field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
			fmt.Fprintf(w, "%s%d: %d\n", indent, num, int64(v))
		case protowire.Fixed32Type:
			v, n := protowire.ConsumeFixed32(b)
			if n < 0 {
				return fmt.Errorf("field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
			fmt.Fprintf(w, "%s%d: %s\n", indent, num,
				strconv.FormatFloat(float64(math.Float32frombits(v)), 'g', -1, 32))
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return fmt.Errorf("field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
			if depth == 0 && num == tableField {
				record++
				fmt.Fprintf(w, "%s%d: { # record %d\n", indent, num, record)
				if err := dump(w, v, depth+1); err != nil {
					return fmt.Errorf("record %d: %w", record, err)
				}
				fmt.Fprintf(w, "%s}\n", indent)
				continue
			}
			if utf8.Valid(v) {
				fmt.Fprintf(w, "%s%d: %q\n", indent, num, v)
			} else {
				fmt.Fprintf(w, "%s%d: 0x%x\n", indent, num, v)
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
			fmt.Fprintf(w, "%s%d: <wire type %d, %d bytes>\n", indent, num, typ, n)
		}
	}
	return nil
}
