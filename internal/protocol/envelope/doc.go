// Package envelope models the JSON messages exchanged with the relay over the
// persistent connection.
//
// Every frame is one JSON object with a "type" field naming its Kind. Parse
// turns a frame into one of the concrete envelope structs; kinds it does not
// know are returned as (nil, nil) so newer relays can add messages without
// breaking older clients. Encode is the inverse and stamps "type" from the
// value's Kind.
//
// Optional telemetry fields are pointers so that "absent" and "present but
// zero" stay distinguishable.
package envelope
