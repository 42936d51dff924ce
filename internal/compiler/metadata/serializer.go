package metadata

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/conduit-lang/metagraph/internal/model"
)

// backReferenceRecord is the flat wire form of a BackReference.
type backReferenceRecord struct {
	Kind   BackReferenceKind        `msgpack:"k"`
	Ref    string                   `msgpack:"r,omitempty"`
	Owner  string                   `msgpack:"o,omitempty"`
	Offset int                      `msgpack:"n,omitempty"`
	Source *model.SourceInformation `msgpack:"s,omitempty"`
}

func toRecord(ref BackReference) (backReferenceRecord, error) {
	switch r := ref.(type) {
	case Application:
		return backReferenceRecord{Kind: ApplicationKind, Ref: r.FunctionExpression}, nil
	case ModelElement:
		return backReferenceRecord{Kind: ModelElementKind, Ref: r.Element}, nil
	case PropertyFromAssociation:
		return backReferenceRecord{Kind: PropertyFromAssociationKind, Ref: r.Property}, nil
	case QualifiedPropertyFromAssociation:
		return backReferenceRecord{Kind: QualifiedPropertyFromAssociationKind, Ref: r.QualifiedProperty}, nil
	case ReferenceUsage:
		return backReferenceRecord{Kind: ReferenceUsageKind, Owner: r.Owner, Ref: r.Property, Offset: r.Offset, Source: r.SourceInformation}, nil
	case Specialization:
		return backReferenceRecord{Kind: SpecializationKind, Ref: r.Generalization}, nil
	default:
		return backReferenceRecord{}, fmt.Errorf("unsupported back reference %T", ref)
	}
}

func (r backReferenceRecord) backReference() (BackReference, error) {
	switch r.Kind {
	case ApplicationKind:
		return Application{FunctionExpression: r.Ref}, nil
	case ModelElementKind:
		return ModelElement{Element: r.Ref}, nil
	case PropertyFromAssociationKind:
		return PropertyFromAssociation{Property: r.Ref}, nil
	case QualifiedPropertyFromAssociationKind:
		return QualifiedPropertyFromAssociation{QualifiedProperty: r.Ref}, nil
	case ReferenceUsageKind:
		return ReferenceUsage{Owner: r.Owner, Property: r.Ref, Offset: r.Offset, SourceInformation: r.Source}, nil
	case SpecializationKind:
		return Specialization{Generalization: r.Ref}, nil
	default:
		return nil, fmt.Errorf("unknown back reference kind %d", r.Kind)
	}
}

// SerializeBackReferences encodes the back references of one element with
// msgpack. Output is deterministic: reference ids are written in sorted order.
func SerializeBackReferences(refs ElementBackReferences) ([]byte, error) {
	type entry struct {
		ID   string                `msgpack:"i"`
		Refs []backReferenceRecord `msgpack:"r"`
	}
	entries := make([]entry, 0, len(refs))
	for _, id := range refs.ReferenceIDs() {
		records := make([]backReferenceRecord, 0, len(refs[id]))
		for _, ref := range refs[id] {
			rec, err := toRecord(ref)
			if err != nil {
				return nil, fmt.Errorf("failed to serialize back references of %s: %w", id, err)
			}
			records = append(records, rec)
		}
		entries = append(entries, entry{ID: id, Refs: records})
	}

	data, err := msgpack.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize back references: %w", err)
	}
	return data, nil
}

// DeserializeBackReferences decodes the output of SerializeBackReferences.
func DeserializeBackReferences(data []byte) (ElementBackReferences, error) {
	var entries []struct {
		ID   string                `msgpack:"i"`
		Refs []backReferenceRecord `msgpack:"r"`
	}
	if err := msgpack.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to deserialize back references: %w", err)
	}

	out := make(ElementBackReferences, len(entries))
	for _, e := range entries {
		refs := make([]BackReference, 0, len(e.Refs))
		for _, rec := range e.Refs {
			ref, err := rec.backReference()
			if err != nil {
				return nil, fmt.Errorf("failed to deserialize back references of %s: %w", e.ID, err)
			}
			refs = append(refs, ref)
		}
		out[e.ID] = refs
	}
	return out, nil
}

// Compress compresses data using gzip compression.
func Compress(data []byte) ([]byte, error) {
	if data == nil {
		return nil, fmt.Errorf("data cannot be nil")
	}

	if len(data) == 0 {
		return []byte{}, nil
	}

	var buf bytes.Buffer

	writer, err := gzip.NewWriterLevel(&buf, gzip.BestSpeed)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip writer: %w", err)
	}

	if _, err := writer.Write(data); err != nil {
		_ = writer.Close() // Ignore close error when write failed
		return nil, fmt.Errorf("failed to compress data: %w", err)
	}

	// Close the writer to flush any remaining data
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close gzip writer: %w", err)
	}

	return buf.Bytes(), nil
}

// Decompress decompresses gzip-compressed data.
func Decompress(data []byte) ([]byte, error) {
	if data == nil {
		return nil, fmt.Errorf("data cannot be nil")
	}

	if len(data) == 0 {
		return []byte{}, nil
	}

	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer func() {
		_ = reader.Close() // Ignore close error - we already have the data
	}()

	decompressed, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress data: %w", err)
	}

	return decompressed, nil
}
