package tools

import (
	"fmt"
	"math"
	"math/big"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/funvibe/iris/internal/evaluator"
)

func argsToMessage(args []evaluator.Object, msg *dynamic.Message) error {
	fields := msg.GetMessageDescriptor().GetFields()
	if len(args) == 1 {
		if rec, ok := args[0].(*evaluator.Record); ok && !(len(fields) == 1 && fields[0].GetMessageType() != nil) {
			return recordToMessage(rec, msg)
		}
	}
	if len(args) > len(fields) {
		return fmt.Errorf("%s has %d fields, got %d arguments", msg.GetMessageDescriptor().GetFullyQualifiedName(), len(fields), len(args))
	}
	for i, arg := range args {
		if err := setField(msg, fields[i], arg); err != nil {
			return err
		}
	}
	return nil
}

// recordToMessage fills msg by field name. Unknown record fields are ignored.
func recordToMessage(rec *evaluator.Record, msg *dynamic.Message) error {
	md := msg.GetMessageDescriptor()
	for _, key := range rec.Keys() {
		fd := md.FindFieldByName(key)
		if fd == nil {
			continue
		}
		if err := setField(msg, fd, rec.Fields[key]); err != nil {
			return err
		}
	}
	return nil
}

func setField(msg *dynamic.Message, fd *desc.FieldDescriptor, val evaluator.Object) error {
	// None leaves the field unset
	if opt, ok := val.(*evaluator.Option); ok {
		if opt.Value == nil {
			return nil
		}
		val = opt.Value
	}

	if fd.IsRepeated() {
		list, ok := val.(*evaluator.List)
		if !ok {
			return fmt.Errorf("field %s: expected List for repeated field, got %s", fd.GetName(), val.Type())
		}
		items := make([]interface{}, 0, len(list.Elements))
		for _, item := range list.Elements {
			v, err := toProtoValue(item, fd)
			if err != nil {
				return fmt.Errorf("field %s: %w", fd.GetName(), err)
			}
			items = append(items, v)
		}
		return msg.TrySetField(fd, items)
	}

	v, err := toProtoValue(val, fd)
	if err != nil {
		return fmt.Errorf("field %s: %w", fd.GetName(), err)
	}
	return msg.TrySetField(fd, v)
}

func toProtoValue(val evaluator.Object, fd *desc.FieldDescriptor) (interface{}, error) {
	switch fd.GetType() {
	case descriptorpb.FieldDescriptorProto_TYPE_INT32, descriptorpb.FieldDescriptorProto_TYPE_SINT32, descriptorpb.FieldDescriptorProto_TYPE_SFIXED32:
		n, err := intValue(val, math.MinInt32, math.MaxInt32)
		return int32(n), err
	case descriptorpb.FieldDescriptorProto_TYPE_INT64, descriptorpb.FieldDescriptorProto_TYPE_SINT64, descriptorpb.FieldDescriptorProto_TYPE_SFIXED64:
		return intValue(val, math.MinInt64, math.MaxInt64)
	case descriptorpb.FieldDescriptorProto_TYPE_UINT32, descriptorpb.FieldDescriptorProto_TYPE_FIXED32:
		n, err := intValue(val, 0, math.MaxUint32)
		return uint32(n), err
	case descriptorpb.FieldDescriptorProto_TYPE_UINT64, descriptorpb.FieldDescriptorProto_TYPE_FIXED64:
		n, err := intValue(val, 0, math.MaxInt64)
		return uint64(n), err
	case descriptorpb.FieldDescriptorProto_TYPE_BOOL:
		if b, ok := val.(*evaluator.Boolean); ok {
			return b.Value, nil
		}
	case descriptorpb.FieldDescriptorProto_TYPE_STRING:
		if s, ok := val.(*evaluator.String); ok {
			return s.Value, nil
		}
	case descriptorpb.FieldDescriptorProto_TYPE_BYTES:
		if s, ok := val.(*evaluator.String); ok {
			return []byte(s.Value), nil
		}
	case descriptorpb.FieldDescriptorProto_TYPE_ENUM:
		// an enum is a tag named after the value, or its number
		switch v := val.(type) {
		case *evaluator.Tagged:
			if ev := fd.GetEnumType().FindValueByName(v.Tag); ev != nil {
				return ev.GetNumber(), nil
			}
			return nil, fmt.Errorf("unknown enum value %s", v.Tag)
		case *evaluator.String:
			if ev := fd.GetEnumType().FindValueByName(v.Value); ev != nil {
				return ev.GetNumber(), nil
			}
			return nil, fmt.Errorf("unknown enum value %s", v.Value)
		case *evaluator.Integer:
			n, err := intValue(v, math.MinInt32, math.MaxInt32)
			return int32(n), err
		}
	case descriptorpb.FieldDescriptorProto_TYPE_MESSAGE:
		rec, ok := val.(*evaluator.Record)
		if !ok {
			break
		}
		nested := dynamic.NewMessage(fd.GetMessageType())
		if err := recordToMessage(rec, nested); err != nil {
			return nil, err
		}
		return nested, nil
	}
	return nil, fmt.Errorf("unsupported conversion from %s to %v", val.Type(), fd.GetType())
}

func intValue(val evaluator.Object, lo, hi int64) (int64, error) {
	i, ok := val.(*evaluator.Integer)
	if !ok {
		return 0, fmt.Errorf("expected I64, got %s", val.Type())
	}
	if !i.Value.IsInt64() || i.Value.Int64() < lo || i.Value.Int64() > hi {
		return 0, fmt.Errorf("integer %s out of range", i.Value.String())
	}
	return i.Value.Int64(), nil
}

// messageToObject converts every declared field, unset ones included, so
// records built from the same message type always have the same shape.
func messageToObject(msg *dynamic.Message) *evaluator.Record {
	fields := make(map[string]evaluator.Object)
	for _, fd := range msg.GetMessageDescriptor().GetFields() {
		fields[fd.GetName()] = fromProtoField(msg.GetField(fd), fd)
	}
	return &evaluator.Record{Fields: fields}
}

func fromProtoField(val interface{}, fd *desc.FieldDescriptor) evaluator.Object {
	if fd.IsRepeated() {
		slice, _ := val.([]interface{})
		items := make([]evaluator.Object, 0, len(slice))
		for _, v := range slice {
			items = append(items, fromProtoValue(v, fd))
		}
		return &evaluator.List{Elements: items}
	}
	if fd.GetMessageType() != nil {
		if m, ok := val.(*dynamic.Message); ok && m != nil {
			return evaluator.Some(messageToObject(m))
		}
		return evaluator.NONE
	}
	return fromProtoValue(val, fd)
}

func fromProtoValue(val interface{}, fd *desc.FieldDescriptor) evaluator.Object {
	if fd.GetType() == descriptorpb.FieldDescriptorProto_TYPE_ENUM {
		if n, ok := val.(int32); ok {
			if ev := fd.GetEnumType().FindValueByNumber(n); ev != nil {
				return &evaluator.Tagged{Tag: ev.GetName(), Value: evaluator.Unit}
			}
			return evaluator.NewInt(int64(n))
		}
	}

	switch v := val.(type) {
	case int32:
		return evaluator.NewInt(int64(v))
	case int64:
		return evaluator.NewInt(v)
	case uint32:
		return evaluator.NewInt(int64(v))
	case uint64:
		return &evaluator.Integer{Value: new(big.Int).SetUint64(v)}
	case bool:
		if v {
			return evaluator.TRUE
		}
		return evaluator.FALSE
	case string:
		return evaluator.NewString(v)
	case []byte:
		return evaluator.NewString(string(v))
	case *dynamic.Message:
		return messageToObject(v)
	}
	return evaluator.Unit
}
