// Package message implements the wire format spoken by glomers nodes.
//
// Every message is a single JSON object on its own line:
//
//  {"src": "c1", "dest": "n1", "body": {"type": "echo", "msg_id": 1, "echo": "hello"}}
//
// The body carries a type tag, an optional msg_id minted by the sender, an
// optional in_reply_to referencing the msg_id of a request, and the fields of
// the payload selected by the type tag. Decoding is driven by a Registry, the
// closed set of type tags a handler understands. A line that names an unknown
// type, or omits a required payload field, fails to decode; DecodeRouting can
// still recover src, dest and msg_id from such a line so the sender can be
// told about it.
//
// Errors travel in-band as bodies of type "error" with a numeric code. The
// codes are represented by the closed ErrorKind enumeration, mapped to and
// from integers explicitly, with UserDefined covering codes of 1000 and above
// and Unknown keeping any other code.
package message
