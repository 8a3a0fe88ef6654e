package catalog

import (
	"github.com/gogo/protobuf/proto"
)

const (
	kMajorVers = 2024
	kMinorVers = 1
)

// dbState is persisted under gStateKey and tracks the format version and skeleton counts per node count.
type dbState struct {
	MajorVers    int32    `protobuf:"varint,1,opt,name=major_vers,json=majorVers,proto3" json:"major_vers,omitempty"`
	MinorVers    int32    `protobuf:"varint,2,opt,name=minor_vers,json=minorVers,proto3" json:"minor_vers,omitempty"`
	NumSkeletons []uint64 `protobuf:"varint,3,rep,packed,name=num_skeletons,json=numSkeletons,proto3" json:"num_skeletons,omitempty"`
}

func (m *dbState) Reset()         { *m = dbState{} }
func (m *dbState) String() string { return proto.CompactTextString(m) }
func (*dbState) ProtoMessage()    {}

// encode and decode go through proto reflection; dbState must not implement proto.Marshaler itself.
func (m *dbState) encode() ([]byte, error) {
	return proto.Marshal(m)
}

func (m *dbState) decode(buf []byte) error {
	return proto.Unmarshal(buf, m)
}
