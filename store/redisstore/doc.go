// Package redisstore persists credential records and reset grants in Redis.
//
// # Key layout
//
//	<prefix>:rec:<accountID>   binary-encoded store.Record
//	<prefix>:email:<email>     accountID
//	<prefix>:user:<username>   accountID
//	<prefix>:grant:<grantID>   binary-encoded store.Grant, with TTL
//
// Updates use WATCH/MULTI on the record key and retry on conflict. Creates
// WATCH all three keys so index claims and the record land together.
package redisstore
