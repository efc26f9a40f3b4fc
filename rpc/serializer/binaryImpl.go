package serializer

import (
	"encoding/binary"
	"fmt"

	"github.com/ValentinKolb/dIndex/lib/cell"
	"github.com/ValentinKolb/dIndex/lib/index"
	"github.com/ValentinKolb/dIndex/lib/store"
	"github.com/ValentinKolb/dIndex/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format
//
// Format: MsgType (1 byte) | flags (4 bytes) | present fields in flag order.
// Strings and byte slices are prefixed with their length (uint32), lists with
// their element count (uint32). Cells use the cell wire format. Bool fields
// are encoded by their flag only.
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasBucket        uint32 = 1 << 0
	hasKey           uint32 = 1 << 1
	hasValue         uint32 = 1 << 2
	hasIndex         uint32 = 1 << 3
	hasTerm          uint32 = 1 << 4
	hasRangeEnd      uint32 = 1 << 5
	hasMaxResults    uint32 = 1 << 6
	hasContinuation  uint32 = 1 << 7
	hasReturnTerms   uint32 = 1 << 8
	hasStream        uint32 = 1 << 9
	hasIgnoreMissing uint32 = 1 << 10
	hasEntries       uint32 = 1 << 11
	hasCells         uint32 = 1 << 12
	hasKeys          uint32 = 1 << 13
	hasResults       uint32 = 1 << 14
	hasVersion       uint32 = 1 << 15
	hasInfo          uint32 = 1 << 16
	hasOk            uint32 = 1 << 17
	hasErr           uint32 = 1 << 18
	hasErrCode       uint32 = 1 << 19
)

const headerSize = 5 // MsgType + flags

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	// Calculate total size needed
	w := &binaryWriter{buf: make([]byte, b.sizeBytes(msg)), pos: headerSize}

	// Write message type
	w.buf[0] = byte(msg.MsgType)

	// Initialize flags
	var flags uint32 = 0

	if msg.Bucket != "" {
		flags |= hasBucket
		w.putString(msg.Bucket)
	}
	if msg.Key != "" {
		flags |= hasKey
		w.putString(msg.Key)
	}
	if msg.Value != nil {
		flags |= hasValue
		w.putBytes(msg.Value)
	}
	if msg.Index != "" {
		flags |= hasIndex
		w.putString(msg.Index)
	}
	if msg.Term != nil {
		flags |= hasTerm
		w.putCell(*msg.Term)
	}
	if msg.RangeEnd != nil {
		flags |= hasRangeEnd
		w.putCell(*msg.RangeEnd)
	}
	if msg.MaxResults > 0 {
		flags |= hasMaxResults
		w.putUint32(msg.MaxResults)
	}
	if msg.Continuation != "" {
		flags |= hasContinuation
		w.putString(msg.Continuation)
	}
	if msg.ReturnTerms {
		flags |= hasReturnTerms
	}
	if msg.Stream {
		flags |= hasStream
	}
	if msg.IgnoreMissing {
		flags |= hasIgnoreMissing
	}
	if msg.Entries != nil {
		flags |= hasEntries
		w.putUint32(uint32(len(msg.Entries)))
		for _, e := range msg.Entries {
			w.putString(e.Name)
			w.putCell(e.Term)
		}
	}
	if msg.Cells != nil {
		flags |= hasCells
		w.putUint32(uint32(len(msg.Cells)))
		for _, c := range msg.Cells {
			w.putCell(c)
		}
	}
	if msg.Keys != nil {
		flags |= hasKeys
		w.putUint32(uint32(len(msg.Keys)))
		for _, k := range msg.Keys {
			w.putString(k)
		}
	}
	if msg.Results != nil {
		flags |= hasResults
		w.putUint32(uint32(len(msg.Results)))
		for _, r := range msg.Results {
			w.putString(r.Term)
			w.putString(r.Key)
		}
	}
	if msg.Version != "" {
		flags |= hasVersion
		w.putString(msg.Version)
	}
	if msg.Info != nil {
		flags |= hasInfo
		w.putString(msg.Info.Version)
		w.putUint64(uint64(msg.Info.Objects))
		w.putUint64(uint64(msg.Info.IndexEntries))
		w.putUint64(uint64(msg.Info.Rows))
	}
	if msg.Ok {
		flags |= hasOk
	}
	if msg.Err != "" {
		flags |= hasErr
		w.putString(msg.Err)
	}
	if msg.ErrCode != 0 {
		flags |= hasErrCode
		w.putUint64(msg.ErrCode)
	}

	// Set flags after knowing which fields are present
	binary.BigEndian.PutUint32(w.buf[1:headerSize], flags)

	return w.buf, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	// Check minimum size (MsgType + flags)
	if len(data) < headerSize {
		return fmt.Errorf("data too short for message header")
	}

	// Reset all fields, the message may be reused
	*msg = common.Message{MsgType: common.MessageType(data[0])}
	flags := binary.BigEndian.Uint32(data[1:headerSize])
	r := &binaryReader{data: data, pos: headerSize}

	var err error
	if flags&hasBucket != 0 {
		if msg.Bucket, err = r.readString("bucket"); err != nil {
			return err
		}
	}
	if flags&hasKey != 0 {
		if msg.Key, err = r.readString("key"); err != nil {
			return err
		}
	}
	if flags&hasValue != 0 {
		if msg.Value, err = r.readBytes("value"); err != nil {
			return err
		}
	}
	if flags&hasIndex != 0 {
		if msg.Index, err = r.readString("index"); err != nil {
			return err
		}
	}
	if flags&hasTerm != 0 {
		c, err := r.readCell("term")
		if err != nil {
			return err
		}
		msg.Term = &c
	}
	if flags&hasRangeEnd != 0 {
		c, err := r.readCell("range end")
		if err != nil {
			return err
		}
		msg.RangeEnd = &c
	}
	if flags&hasMaxResults != 0 {
		if msg.MaxResults, err = r.readUint32("max results"); err != nil {
			return err
		}
	}
	if flags&hasContinuation != 0 {
		if msg.Continuation, err = r.readString("continuation"); err != nil {
			return err
		}
	}
	msg.ReturnTerms = flags&hasReturnTerms != 0
	msg.Stream = flags&hasStream != 0
	msg.IgnoreMissing = flags&hasIgnoreMissing != 0

	if flags&hasEntries != 0 {
		n, err := r.readCount("entries", 5)
		if err != nil {
			return err
		}
		msg.Entries = make([]common.IndexEntry, n)
		for i := range msg.Entries {
			if msg.Entries[i].Name, err = r.readString("entry name"); err != nil {
				return err
			}
			if msg.Entries[i].Term, err = r.readCell("entry term"); err != nil {
				return err
			}
		}
	}
	if flags&hasCells != 0 {
		n, err := r.readCount("cells", 1)
		if err != nil {
			return err
		}
		msg.Cells = make([]cell.Cell, n)
		for i := range msg.Cells {
			if msg.Cells[i], err = r.readCell("cell"); err != nil {
				return err
			}
		}
	}
	if flags&hasKeys != 0 {
		n, err := r.readCount("keys", 4)
		if err != nil {
			return err
		}
		msg.Keys = make([]string, n)
		for i := range msg.Keys {
			if msg.Keys[i], err = r.readString("key"); err != nil {
				return err
			}
		}
	}
	if flags&hasResults != 0 {
		n, err := r.readCount("results", 8)
		if err != nil {
			return err
		}
		msg.Results = make([]index.TermKey, n)
		for i := range msg.Results {
			if msg.Results[i].Term, err = r.readString("result term"); err != nil {
				return err
			}
			if msg.Results[i].Key, err = r.readString("result key"); err != nil {
				return err
			}
		}
	}
	if flags&hasVersion != 0 {
		if msg.Version, err = r.readString("version"); err != nil {
			return err
		}
	}
	if flags&hasInfo != 0 {
		info := &store.Info{}
		if info.Version, err = r.readString("info version"); err != nil {
			return err
		}
		for _, field := range []*int{&info.Objects, &info.IndexEntries, &info.Rows} {
			v, err := r.readUint64("info")
			if err != nil {
				return err
			}
			*field = int(v)
		}
		msg.Info = info
	}
	msg.Ok = flags&hasOk != 0
	if flags&hasErr != 0 {
		if msg.Err, err = r.readString("error"); err != nil {
			return err
		}
	}
	if flags&hasErrCode != 0 {
		if msg.ErrCode, err = r.readUint64("error code"); err != nil {
			return err
		}
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// sizeBytes calculates the total size needed for serialization
func (b binarySerializerImpl) sizeBytes(msg common.Message) int {
	size := headerSize

	// Add sizes for fields that require length encoding (4 bytes for the length)
	if msg.Bucket != "" {
		size += 4 + len(msg.Bucket)
	}
	if msg.Key != "" {
		size += 4 + len(msg.Key)
	}
	if msg.Value != nil {
		size += 4 + len(msg.Value)
	}
	if msg.Index != "" {
		size += 4 + len(msg.Index)
	}
	if msg.Term != nil {
		size += msg.Term.Size()
	}
	if msg.RangeEnd != nil {
		size += msg.RangeEnd.Size()
	}
	if msg.MaxResults > 0 {
		size += 4 // uint32
	}
	if msg.Continuation != "" {
		size += 4 + len(msg.Continuation)
	}
	if msg.Entries != nil {
		size += 4 // count
		for _, e := range msg.Entries {
			size += 4 + len(e.Name) + e.Term.Size()
		}
	}
	if msg.Cells != nil {
		size += 4 // count
		for _, c := range msg.Cells {
			size += c.Size()
		}
	}
	if msg.Keys != nil {
		size += 4 // count
		for _, k := range msg.Keys {
			size += 4 + len(k)
		}
	}
	if msg.Results != nil {
		size += 4 // count
		for _, r := range msg.Results {
			size += 4 + len(r.Term) + 4 + len(r.Key)
		}
	}
	if msg.Version != "" {
		size += 4 + len(msg.Version)
	}
	if msg.Info != nil {
		size += 4 + len(msg.Info.Version) + 3*8
	}
	if msg.Err != "" {
		size += 4 + len(msg.Err)
	}
	if msg.ErrCode != 0 {
		size += 8 // uint64
	}

	return size
}

// binaryWriter writes fields into a buffer of the precomputed size
type binaryWriter struct {
	buf []byte
	pos int
}

func (w *binaryWriter) putUint32(v uint32) {
	binary.BigEndian.PutUint32(w.buf[w.pos:w.pos+4], v)
	w.pos += 4
}

func (w *binaryWriter) putUint64(v uint64) {
	binary.BigEndian.PutUint64(w.buf[w.pos:w.pos+8], v)
	w.pos += 8
}

func (w *binaryWriter) putString(s string) {
	w.putUint32(uint32(len(s)))
	w.pos += copy(w.buf[w.pos:], s)
}

func (w *binaryWriter) putBytes(b []byte) {
	w.putUint32(uint32(len(b)))
	w.pos += copy(w.buf[w.pos:], b)
}

func (w *binaryWriter) putCell(c cell.Cell) {
	w.pos += c.PutBinary(w.buf[w.pos:])
}

// binaryReader reads fields and reports which field was truncated
type binaryReader struct {
	data []byte
	pos  int
}

func (r *binaryReader) readUint32(field string) (uint32, error) {
	if r.pos+4 > len(r.data) {
		return 0, fmt.Errorf("data too short for %s", field)
	}
	v := binary.BigEndian.Uint32(r.data[r.pos : r.pos+4])
	r.pos += 4
	return v, nil
}

func (r *binaryReader) readUint64(field string) (uint64, error) {
	if r.pos+8 > len(r.data) {
		return 0, fmt.Errorf("data too short for %s", field)
	}
	v := binary.BigEndian.Uint64(r.data[r.pos : r.pos+8])
	r.pos += 8
	return v, nil
}

// count reads a list length and checks it against the remaining data,
// so a corrupt length cannot trigger a huge allocation
func (r *binaryReader) readCount(field string, minElemSize int) (int, error) {
	n, err := r.readUint32(field + " count")
	if err != nil {
		return 0, err
	}
	if int(n)*minElemSize > len(r.data)-r.pos {
		return 0, fmt.Errorf("data too short for %s", field)
	}
	return int(n), nil
}

func (r *binaryReader) readBytes(field string) ([]byte, error) {
	n, err := r.readUint32(field + " length")
	if err != nil {
		return nil, err
	}
	if r.pos+int(n) > len(r.data) {
		return nil, fmt.Errorf("data too short for %s data", field)
	}
	// copy, the message must not alias the (pooled) input buffer
	b := make([]byte, n)
	copy(b, r.data[r.pos:r.pos+int(n)])
	r.pos += int(n)
	return b, nil
}

func (r *binaryReader) readString(field string) (string, error) {
	n, err := r.readUint32(field + " length")
	if err != nil {
		return "", err
	}
	if r.pos+int(n) > len(r.data) {
		return "", fmt.Errorf("data too short for %s data", field)
	}
	s := string(r.data[r.pos : r.pos+int(n)])
	r.pos += int(n)
	return s, nil
}

func (r *binaryReader) readCell(field string) (cell.Cell, error) {
	var c cell.Cell
	n, err := c.ReadBinary(r.data[r.pos:])
	if err != nil {
		return cell.Cell{}, fmt.Errorf("invalid %s: %w", field, err)
	}
	r.pos += n
	return c, nil
}
