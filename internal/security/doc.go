// Package security derives a read-only posture report from the credential
// configuration. The report states which protections are active; it never
// carries secrets.
package security
