package util

func PtrString(s string) *string {
	return &s
}
