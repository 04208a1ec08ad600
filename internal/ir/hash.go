package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed IDs. The version suffix leaves
// room to change the hashed layout later.
const (
	DomainInvocation = "hoc/invocation/v1"
	DomainCompletion = "hoc/completion/v1"
	DomainSpec       = "hoc/spec/v1"
)

// hashWithDomain returns hex(SHA256(domain || 0x00 || data)).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// InvocationID computes the ID of a recorded call. The strategy that
// produced the call is not part of the identity: the same call in the
// same flow at the same seq is the same invocation.
func InvocationID(flowToken string, method MethodRef, args IRArray, seq int64) (string, error) {
	if args == nil {
		args = IRArray{}
	}
	obj := IRObject{
		"flow_token": IRString(flowToken),
		"method_ref": IRString(method),
		"args":       args,
		"seq":        IRInt(seq),
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("InvocationID: %w", err)
	}
	return hashWithDomain(DomainInvocation, canonical), nil
}

// CompletionID computes the ID of a call result linked to invocationID.
func CompletionID(invocationID, outputCase string, result IRObject, seq int64) (string, error) {
	obj := IRObject{
		"invocation_id": IRString(invocationID),
		"output_case":   IRString(outputCase),
		"result":        result,
		"seq":           IRInt(seq),
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("CompletionID: %w", err)
	}
	return hashWithDomain(DomainCompletion, canonical), nil
}

// SpecHash fingerprints a compiled class spec.
func SpecHash(spec *ClassSpec) (string, error) {
	canonical, err := MarshalCanonical(spec.toObject())
	if err != nil {
		return "", fmt.Errorf("SpecHash %s: %w", spec.Name, err)
	}
	return hashWithDomain(DomainSpec, canonical), nil
}

// MustInvocationID panics on error. Tests only.
func MustInvocationID(flowToken string, method MethodRef, args IRArray, seq int64) string {
	id, err := InvocationID(flowToken, method, args, seq)
	if err != nil {
		panic(err)
	}
	return id
}

// MustCompletionID panics on error. Tests only.
func MustCompletionID(invocationID, outputCase string, result IRObject, seq int64) string {
	id, err := CompletionID(invocationID, outputCase, result, seq)
	if err != nil {
		panic(err)
	}
	return id
}
