package message

import (
	"github.com/spiral/errors"
	"go.uber.org/zap"

	"github.com/prxmesh/prxcore/pkg/codec"
	"github.com/prxmesh/prxcore/pkg/perr"
)

// EncodeMessage emits m as the outermost 9-member composite:
// version, source, proxy, target, seq, error_code, is_response, type,
// content.
func EncodeMessage(ctx *codec.Context, m *Message) error {
	const op = errors.Op("message: encode")
	if err := ctx.EncTypeBegin(9); err != nil {
		return errors.E(op, err)
	}
	if err := ctx.EncUint("version", uint64(ProtocolVersion)); err != nil {
		return errors.E(op, err)
	}
	if err := encodeRef(ctx, "source_id", m.SourceID); err != nil {
		return errors.E(op, err)
	}
	if err := encodeRef(ctx, "proxy_id", m.ProxyID); err != nil {
		return errors.E(op, err)
	}
	if err := encodeRef(ctx, "target_id", m.TargetID); err != nil {
		return errors.E(op, err)
	}
	if err := ctx.EncUint("seq_id", uint64(m.SeqID)); err != nil {
		return errors.E(op, err)
	}
	if err := ctx.EncInt("error_code", int64(m.ErrorCode)); err != nil {
		return errors.E(op, err)
	}
	if err := ctx.EncBool("is_response", m.IsResponse); err != nil {
		return errors.E(op, err)
	}
	if err := ctx.EncUint("type", uint64(m.Type)); err != nil {
		return errors.E(op, err)
	}
	if err := encodeContent(ctx, m); err != nil {
		return errors.E(op, err)
	}
	return ctx.EncTypeEnd()
}

// DecodeMessage reads a Message from ctx's outermost composite into m.
// Binary fields are allocated via ctx's default allocator, which the
// Factory binds to the destination message's arena; decoded strings
// are ordinary Go strings and are not copied into the arena.
func DecodeMessage(ctx *codec.Context, m *Message) error {
	const op = errors.Op("message: decode")
	if err := ctx.DecTypeBegin(); err != nil {
		return errors.E(op, err)
	}
	var version uint32
	if err := ctx.DecUint32("version", &version); err != nil {
		return errors.E(op, err)
	}
	if version>>24 != ProtocolVersion>>24 {
		return errors.E(op, perr.ErrInvalidFormat)
	}
	if ctx.Log != nil {
		ctx.Log.Debug("message: protocol version", zap.Uint32("version", version))
	}
	if err := decodeRef(ctx, "source_id", &m.SourceID); err != nil {
		return errors.E(op, err)
	}
	if err := decodeRef(ctx, "proxy_id", &m.ProxyID); err != nil {
		return errors.E(op, err)
	}
	if err := decodeRef(ctx, "target_id", &m.TargetID); err != nil {
		return errors.E(op, err)
	}
	var seq uint32
	if err := ctx.DecUint32("seq_id", &seq); err != nil {
		return errors.E(op, err)
	}
	m.SeqID = seq
	var errCode int32
	if err := ctx.DecInt32("error_code", &errCode); err != nil {
		return errors.E(op, err)
	}
	m.ErrorCode = errCode
	if err := ctx.DecBool("is_response", &m.IsResponse); err != nil {
		return errors.E(op, err)
	}
	if err := ctx.DecUint32("type", &m.Type); err != nil {
		return errors.E(op, err)
	}
	if err := decodeContent(ctx, m); err != nil {
		return errors.E(op, err)
	}
	return ctx.DecTypeEnd()
}

// encodeContent dispatches on (type, is_response). Directions with no
// payload for a given type emit a null object.
func encodeContent(ctx *codec.Context, m *Message) error {
	const op = errors.Op("message: encode content")
	switch {
	case m.Type == TypePing && !m.IsResponse:
		return encodePingRequest(ctx, m.Content.PingRequest)
	case m.Type == TypePing && m.IsResponse:
		return encodePingResponse(ctx, m.Content.PingResponse)
	case m.Type == TypeLink && !m.IsResponse:
		return encodeLinkRequest(ctx, m.Content.LinkRequest)
	case m.Type == TypeLink && m.IsResponse:
		return encodeLinkResponse(ctx, m.Content.LinkResponse)
	case m.Type == TypeSetopt && !m.IsResponse:
		return encodeSetoptRequest(ctx, m.Content.SetoptRequest)
	case m.Type == TypeSetopt && m.IsResponse:
		return ctx.EncObject("content", true, &codec.Context{})
	case m.Type == TypeGetopt && !m.IsResponse:
		return encodeGetoptRequest(ctx, m.Content.GetoptRequest)
	case m.Type == TypeGetopt && m.IsResponse:
		return encodeGetoptResponse(ctx, m.Content.GetoptResponse)
	case m.Type == TypeOpen && !m.IsResponse:
		return encodeOpenRequest(ctx, m.Content.OpenRequest)
	case m.Type == TypeOpen && m.IsResponse:
		return ctx.EncObject("content", true, &codec.Context{})
	case m.Type == TypeClose && !m.IsResponse:
		return ctx.EncObject("content", true, &codec.Context{})
	case m.Type == TypeClose && m.IsResponse:
		return encodeCloseResponse(ctx, m.Content.CloseResponse)
	case m.Type == TypeData:
		return encodeDataMessage(ctx, m.Content.DataMessage)
	case m.Type == TypePoll && !m.IsResponse:
		return encodePollMessage(ctx, m.Content.PollMessage)
	case m.Type == TypePoll && m.IsResponse:
		return ctx.EncObject("content", true, &codec.Context{})
	default:
		return errors.E(op, perr.ErrNotSupported)
	}
}

func decodeContent(ctx *codec.Context, m *Message) error {
	const op = errors.Op("message: decode content")
	switch {
	case m.Type == TypePing && !m.IsResponse:
		m.Content.PingRequest = &PingRequest{}
		return decodePingRequest(ctx, m.Content.PingRequest)
	case m.Type == TypePing && m.IsResponse:
		m.Content.PingResponse = &PingResponse{}
		return decodePingResponse(ctx, m.Content.PingResponse)
	case m.Type == TypeLink && !m.IsResponse:
		m.Content.LinkRequest = &LinkRequest{}
		return decodeLinkRequest(ctx, m.Content.LinkRequest)
	case m.Type == TypeLink && m.IsResponse:
		m.Content.LinkResponse = &LinkResponse{}
		return decodeLinkResponse(ctx, m.Content.LinkResponse)
	case m.Type == TypeSetopt && !m.IsResponse:
		m.Content.SetoptRequest = &SetoptRequest{}
		return decodeSetoptRequest(ctx, m.Content.SetoptRequest)
	case m.Type == TypeSetopt && m.IsResponse:
		return decodeNullContent(ctx)
	case m.Type == TypeGetopt && !m.IsResponse:
		m.Content.GetoptRequest = &GetoptRequest{}
		return decodeGetoptRequest(ctx, m.Content.GetoptRequest)
	case m.Type == TypeGetopt && m.IsResponse:
		m.Content.GetoptResponse = &GetoptResponse{}
		return decodeGetoptResponse(ctx, m.Content.GetoptResponse)
	case m.Type == TypeOpen && !m.IsResponse:
		m.Content.OpenRequest = &OpenRequest{}
		return decodeOpenRequest(ctx, m.Content.OpenRequest)
	case m.Type == TypeOpen && m.IsResponse:
		return decodeNullContent(ctx)
	case m.Type == TypeClose && !m.IsResponse:
		return decodeNullContent(ctx)
	case m.Type == TypeClose && m.IsResponse:
		m.Content.CloseResponse = &CloseResponse{}
		return decodeCloseResponse(ctx, m.Content.CloseResponse)
	case m.Type == TypeData:
		m.Content.DataMessage = &DataMessage{}
		return decodeDataMessage(ctx, m.Content.DataMessage)
	case m.Type == TypePoll && !m.IsResponse:
		m.Content.PollMessage = &PollMessage{}
		return decodePollMessage(ctx, m.Content.PollMessage)
	case m.Type == TypePoll && m.IsResponse:
		return decodeNullContent(ctx)
	default:
		return errors.E(op, perr.ErrNotSupported)
	}
}

func decodeNullContent(ctx *codec.Context) error {
	const op = errors.Op("message: decode null content")
	var isNull bool
	var obj codec.Context
	if err := ctx.DecObject("content", &isNull, &obj); err != nil {
		return errors.E(op, err)
	}
	if !isNull {
		return errors.E(op, perr.ErrInvalidFormat)
	}
	return nil
}

func encodePingRequest(ctx *codec.Context, r *PingRequest) error {
	const op = errors.Op("message: encode ping request")
	if r == nil {
		return errors.E(op, perr.ErrFault)
	}
	var obj codec.Context
	if err := ctx.EncObject("content", false, &obj); err != nil {
		return errors.E(op, err)
	}
	if err := obj.EncTypeBegin(1); err != nil {
		return errors.E(op, err)
	}
	if err := encodeAddress(&obj, "address", r.Address); err != nil {
		return errors.E(op, err)
	}
	return obj.EncTypeEnd()
}

func decodePingRequest(ctx *codec.Context, r *PingRequest) error {
	const op = errors.Op("message: decode ping request")
	var isNull bool
	var obj codec.Context
	if err := ctx.DecObject("content", &isNull, &obj); err != nil {
		return errors.E(op, err)
	}
	if isNull {
		return errors.E(op, perr.ErrInvalidFormat)
	}
	if err := obj.DecTypeBegin(); err != nil {
		return errors.E(op, err)
	}
	if err := decodeAddress(&obj, "address", &r.Address); err != nil {
		return errors.E(op, err)
	}
	return obj.DecTypeEnd()
}

func encodePingResponse(ctx *codec.Context, r *PingResponse) error {
	const op = errors.Op("message: encode ping response")
	if r == nil {
		return errors.E(op, perr.ErrFault)
	}
	var obj codec.Context
	if err := ctx.EncObject("content", false, &obj); err != nil {
		return errors.E(op, err)
	}
	if err := obj.EncTypeBegin(3); err != nil {
		return errors.E(op, err)
	}
	if err := encodeAddress(&obj, "address", r.Address); err != nil {
		return errors.E(op, err)
	}
	if err := obj.EncBin("physical_address", r.PhysicalAddress[:]); err != nil {
		return errors.E(op, err)
	}
	if err := obj.EncUint("time_ms", uint64(r.TimeMS)); err != nil {
		return errors.E(op, err)
	}
	return obj.EncTypeEnd()
}

func decodePingResponse(ctx *codec.Context, r *PingResponse) error {
	const op = errors.Op("message: decode ping response")
	var isNull bool
	var obj codec.Context
	if err := ctx.DecObject("content", &isNull, &obj); err != nil {
		return errors.E(op, err)
	}
	if isNull {
		return errors.E(op, perr.ErrInvalidFormat)
	}
	if err := obj.DecTypeBegin(); err != nil {
		return errors.E(op, err)
	}
	if err := decodeAddress(&obj, "address", &r.Address); err != nil {
		return errors.E(op, err)
	}
	var raw []byte
	if err := obj.DecBin("physical_address", nil, &raw); err != nil {
		return errors.E(op, err)
	}
	copy(r.PhysicalAddress[:], raw)
	var t uint32
	if err := obj.DecUint32("time_ms", &t); err != nil {
		return errors.E(op, err)
	}
	r.TimeMS = t
	return obj.DecTypeEnd()
}

func encodeLinkRequest(ctx *codec.Context, r *LinkRequest) error {
	const op = errors.Op("message: encode link request")
	if r == nil {
		return errors.E(op, perr.ErrFault)
	}
	var obj codec.Context
	if err := ctx.EncObject("content", false, &obj); err != nil {
		return errors.E(op, err)
	}
	if err := obj.EncTypeBegin(2); err != nil {
		return errors.E(op, err)
	}
	if err := obj.EncUint("version", uint64(r.Version)); err != nil {
		return errors.E(op, err)
	}
	if err := encodeSocketProperties(&obj, "props", r.Props); err != nil {
		return errors.E(op, err)
	}
	return obj.EncTypeEnd()
}

func decodeLinkRequest(ctx *codec.Context, r *LinkRequest) error {
	const op = errors.Op("message: decode link request")
	var isNull bool
	var obj codec.Context
	if err := ctx.DecObject("content", &isNull, &obj); err != nil {
		return errors.E(op, err)
	}
	if isNull {
		return errors.E(op, perr.ErrInvalidFormat)
	}
	if err := obj.DecTypeBegin(); err != nil {
		return errors.E(op, err)
	}
	var v uint8
	if err := obj.DecUint8("version", &v); err != nil {
		return errors.E(op, err)
	}
	if v != LinkVersion {
		return errors.E(op, perr.ErrInvalidFormat)
	}
	r.Version = v
	if err := decodeSocketProperties(&obj, "props", &r.Props); err != nil {
		return errors.E(op, err)
	}
	return obj.DecTypeEnd()
}

func encodeLinkResponse(ctx *codec.Context, r *LinkResponse) error {
	const op = errors.Op("message: encode link response")
	if r == nil {
		return errors.E(op, perr.ErrFault)
	}
	var obj codec.Context
	if err := ctx.EncObject("content", false, &obj); err != nil {
		return errors.E(op, err)
	}
	if err := obj.EncTypeBegin(3); err != nil {
		return errors.E(op, err)
	}
	if err := encodeRef(&obj, "link_id", r.LinkID); err != nil {
		return errors.E(op, err)
	}
	if err := encodeAddress(&obj, "local_address", r.LocalAddress); err != nil {
		return errors.E(op, err)
	}
	if err := encodeAddress(&obj, "peer_address", r.PeerAddress); err != nil {
		return errors.E(op, err)
	}
	return obj.EncTypeEnd()
}

func decodeLinkResponse(ctx *codec.Context, r *LinkResponse) error {
	const op = errors.Op("message: decode link response")
	var isNull bool
	var obj codec.Context
	if err := ctx.DecObject("content", &isNull, &obj); err != nil {
		return errors.E(op, err)
	}
	if isNull {
		return errors.E(op, perr.ErrInvalidFormat)
	}
	if err := obj.DecTypeBegin(); err != nil {
		return errors.E(op, err)
	}
	if err := decodeRef(&obj, "link_id", &r.LinkID); err != nil {
		return errors.E(op, err)
	}
	if err := decodeAddress(&obj, "local_address", &r.LocalAddress); err != nil {
		return errors.E(op, err)
	}
	if err := decodeAddress(&obj, "peer_address", &r.PeerAddress); err != nil {
		return errors.E(op, err)
	}
	return obj.DecTypeEnd()
}

func encodeSetoptRequest(ctx *codec.Context, r *SetoptRequest) error {
	const op = errors.Op("message: encode setopt request")
	if r == nil {
		return errors.E(op, perr.ErrFault)
	}
	var obj codec.Context
	if err := ctx.EncObject("content", false, &obj); err != nil {
		return errors.E(op, err)
	}
	if err := obj.EncTypeBegin(1); err != nil {
		return errors.E(op, err)
	}
	if err := encodeProperty(&obj, "so_val", r.Value); err != nil {
		return errors.E(op, err)
	}
	return obj.EncTypeEnd()
}

func decodeSetoptRequest(ctx *codec.Context, r *SetoptRequest) error {
	const op = errors.Op("message: decode setopt request")
	var isNull bool
	var obj codec.Context
	if err := ctx.DecObject("content", &isNull, &obj); err != nil {
		return errors.E(op, err)
	}
	if isNull {
		return errors.E(op, perr.ErrInvalidFormat)
	}
	if err := obj.DecTypeBegin(); err != nil {
		return errors.E(op, err)
	}
	if err := decodeProperty(&obj, "so_val", &r.Value); err != nil {
		return errors.E(op, err)
	}
	return obj.DecTypeEnd()
}

func encodeGetoptRequest(ctx *codec.Context, r *GetoptRequest) error {
	const op = errors.Op("message: encode getopt request")
	if r == nil {
		return errors.E(op, perr.ErrFault)
	}
	var obj codec.Context
	if err := ctx.EncObject("content", false, &obj); err != nil {
		return errors.E(op, err)
	}
	if err := obj.EncTypeBegin(1); err != nil {
		return errors.E(op, err)
	}
	if err := obj.EncUint("so_opt", uint64(r.OptionID)); err != nil {
		return errors.E(op, err)
	}
	return obj.EncTypeEnd()
}

func decodeGetoptRequest(ctx *codec.Context, r *GetoptRequest) error {
	const op = errors.Op("message: decode getopt request")
	var isNull bool
	var obj codec.Context
	if err := ctx.DecObject("content", &isNull, &obj); err != nil {
		return errors.E(op, err)
	}
	if isNull {
		return errors.E(op, perr.ErrInvalidFormat)
	}
	if err := obj.DecTypeBegin(); err != nil {
		return errors.E(op, err)
	}
	if err := obj.DecUint32("so_opt", &r.OptionID); err != nil {
		return errors.E(op, err)
	}
	return obj.DecTypeEnd()
}

func encodeGetoptResponse(ctx *codec.Context, r *GetoptResponse) error {
	const op = errors.Op("message: encode getopt response")
	if r == nil {
		return errors.E(op, perr.ErrFault)
	}
	var obj codec.Context
	if err := ctx.EncObject("content", false, &obj); err != nil {
		return errors.E(op, err)
	}
	if err := obj.EncTypeBegin(1); err != nil {
		return errors.E(op, err)
	}
	if err := encodeProperty(&obj, "so_val", r.Value); err != nil {
		return errors.E(op, err)
	}
	return obj.EncTypeEnd()
}

func decodeGetoptResponse(ctx *codec.Context, r *GetoptResponse) error {
	const op = errors.Op("message: decode getopt response")
	var isNull bool
	var obj codec.Context
	if err := ctx.DecObject("content", &isNull, &obj); err != nil {
		return errors.E(op, err)
	}
	if isNull {
		return errors.E(op, perr.ErrInvalidFormat)
	}
	if err := obj.DecTypeBegin(); err != nil {
		return errors.E(op, err)
	}
	if err := decodeProperty(&obj, "so_val", &r.Value); err != nil {
		return errors.E(op, err)
	}
	return obj.DecTypeEnd()
}

func encodeOpenRequest(ctx *codec.Context, r *OpenRequest) error {
	const op = errors.Op("message: encode open request")
	if r == nil {
		return errors.E(op, perr.ErrFault)
	}
	var obj codec.Context
	if err := ctx.EncObject("content", false, &obj); err != nil {
		return errors.E(op, err)
	}
	if err := obj.EncTypeBegin(6); err != nil {
		return errors.E(op, err)
	}
	if err := encodeRef(&obj, "stream_id", r.StreamID); err != nil {
		return errors.E(op, err)
	}
	if err := obj.EncInt("encoding", int64(r.Encoding)); err != nil {
		return errors.E(op, err)
	}
	if err := obj.EncInt("type", int64(r.Type)); err != nil {
		return errors.E(op, err)
	}
	if err := obj.EncString("connection_string", r.ConnectionString); err != nil {
		return errors.E(op, err)
	}
	if err := obj.EncBool("polled", r.Polled); err != nil {
		return errors.E(op, err)
	}
	if err := obj.EncUint("max_recv", uint64(r.MaxRecv)); err != nil {
		return errors.E(op, err)
	}
	return obj.EncTypeEnd()
}

func decodeOpenRequest(ctx *codec.Context, r *OpenRequest) error {
	const op = errors.Op("message: decode open request")
	var isNull bool
	var obj codec.Context
	if err := ctx.DecObject("content", &isNull, &obj); err != nil {
		return errors.E(op, err)
	}
	if isNull {
		return errors.E(op, perr.ErrInvalidFormat)
	}
	if err := obj.DecTypeBegin(); err != nil {
		return errors.E(op, err)
	}
	if err := decodeRef(&obj, "stream_id", &r.StreamID); err != nil {
		return errors.E(op, err)
	}
	var encoding, typ int64
	if err := obj.DecInt("encoding", &encoding); err != nil {
		return errors.E(op, err)
	}
	r.Encoding = int32(encoding)
	if err := obj.DecInt("type", &typ); err != nil {
		return errors.E(op, err)
	}
	r.Type = int32(typ)
	if err := obj.DecString("connection_string", nil, &r.ConnectionString); err != nil {
		return errors.E(op, err)
	}
	if err := obj.DecBool("polled", &r.Polled); err != nil {
		return errors.E(op, err)
	}
	if err := obj.DecUint32("max_recv", &r.MaxRecv); err != nil {
		return errors.E(op, err)
	}
	return obj.DecTypeEnd()
}

func encodeCloseResponse(ctx *codec.Context, r *CloseResponse) error {
	const op = errors.Op("message: encode close response")
	if r == nil {
		return errors.E(op, perr.ErrFault)
	}
	var obj codec.Context
	if err := ctx.EncObject("content", false, &obj); err != nil {
		return errors.E(op, err)
	}
	if err := obj.EncTypeBegin(4); err != nil {
		return errors.E(op, err)
	}
	if err := obj.EncUint("time_open", r.TimeOpen); err != nil {
		return errors.E(op, err)
	}
	if err := obj.EncUint("bytes_sent", r.BytesSent); err != nil {
		return errors.E(op, err)
	}
	if err := obj.EncUint("bytes_received", r.BytesReceived); err != nil {
		return errors.E(op, err)
	}
	if err := obj.EncInt("error_code", int64(r.ErrorCode)); err != nil {
		return errors.E(op, err)
	}
	return obj.EncTypeEnd()
}

func decodeCloseResponse(ctx *codec.Context, r *CloseResponse) error {
	const op = errors.Op("message: decode close response")
	var isNull bool
	var obj codec.Context
	if err := ctx.DecObject("content", &isNull, &obj); err != nil {
		return errors.E(op, err)
	}
	if isNull {
		return errors.E(op, perr.ErrInvalidFormat)
	}
	if err := obj.DecTypeBegin(); err != nil {
		return errors.E(op, err)
	}
	if err := obj.DecUint("time_open", &r.TimeOpen); err != nil {
		return errors.E(op, err)
	}
	if err := obj.DecUint("bytes_sent", &r.BytesSent); err != nil {
		return errors.E(op, err)
	}
	if err := obj.DecUint("bytes_received", &r.BytesReceived); err != nil {
		return errors.E(op, err)
	}
	var ec int32
	if err := obj.DecInt32("error_code", &ec); err != nil {
		return errors.E(op, err)
	}
	r.ErrorCode = ec
	return obj.DecTypeEnd()
}

func encodeDataMessage(ctx *codec.Context, r *DataMessage) error {
	const op = errors.Op("message: encode data message")
	if r == nil {
		return errors.E(op, perr.ErrFault)
	}
	var obj codec.Context
	if err := ctx.EncObject("content", false, &obj); err != nil {
		return errors.E(op, err)
	}
	if err := obj.EncTypeBegin(4); err != nil {
		return errors.E(op, err)
	}
	if err := obj.EncUint("sequence_number", r.SequenceNumber); err != nil {
		return errors.E(op, err)
	}
	if err := encodeAddress(&obj, "source_address", r.SourceAddress); err != nil {
		return errors.E(op, err)
	}
	if err := obj.EncBin("control_buffer", r.ControlBuffer); err != nil {
		return errors.E(op, err)
	}
	if err := obj.EncBin("buffer", r.Buffer); err != nil {
		return errors.E(op, err)
	}
	return obj.EncTypeEnd()
}

func decodeDataMessage(ctx *codec.Context, r *DataMessage) error {
	const op = errors.Op("message: decode data message")
	var isNull bool
	var obj codec.Context
	if err := ctx.DecObject("content", &isNull, &obj); err != nil {
		return errors.E(op, err)
	}
	if isNull {
		return errors.E(op, perr.ErrInvalidFormat)
	}
	if err := obj.DecTypeBegin(); err != nil {
		return errors.E(op, err)
	}
	if err := obj.DecUint("sequence_number", &r.SequenceNumber); err != nil {
		return errors.E(op, err)
	}
	if err := decodeAddress(&obj, "source_address", &r.SourceAddress); err != nil {
		return errors.E(op, err)
	}
	if err := obj.DecBin("control_buffer", nil, &r.ControlBuffer); err != nil {
		return errors.E(op, err)
	}
	if err := obj.DecBin("buffer", nil, &r.Buffer); err != nil {
		return errors.E(op, err)
	}
	return obj.DecTypeEnd()
}

func encodePollMessage(ctx *codec.Context, r *PollMessage) error {
	const op = errors.Op("message: encode poll message")
	if r == nil {
		return errors.E(op, perr.ErrFault)
	}
	var obj codec.Context
	if err := ctx.EncObject("content", false, &obj); err != nil {
		return errors.E(op, err)
	}
	if err := obj.EncTypeBegin(2); err != nil {
		return errors.E(op, err)
	}
	if err := obj.EncUint("sequence_number", r.SequenceNumber); err != nil {
		return errors.E(op, err)
	}
	if err := obj.EncUint("timeout", r.Timeout); err != nil {
		return errors.E(op, err)
	}
	return obj.EncTypeEnd()
}

func decodePollMessage(ctx *codec.Context, r *PollMessage) error {
	const op = errors.Op("message: decode poll message")
	var isNull bool
	var obj codec.Context
	if err := ctx.DecObject("content", &isNull, &obj); err != nil {
		return errors.E(op, err)
	}
	if isNull {
		return errors.E(op, perr.ErrInvalidFormat)
	}
	if err := obj.DecTypeBegin(); err != nil {
		return errors.E(op, err)
	}
	if err := obj.DecUint("sequence_number", &r.SequenceNumber); err != nil {
		return errors.E(op, err)
	}
	if err := obj.DecUint("timeout", &r.Timeout); err != nil {
		return errors.E(op, err)
	}
	return obj.DecTypeEnd()
}
