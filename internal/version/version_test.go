package version

import "testing"

func TestBuildInfo(t *testing.T) {
	switch {
	case GetVersion() == "":
		t.Error("version should not be empty")
	case GetCommit() == "":
		t.Error("commit should not be empty")
	case GetDate() == "":
		t.Error("date should not be empty")
	default:
		t.Log("version: ", GetVersion())
		t.Log("commit: ", GetCommit())
		t.Log("date: ", GetDate())
	}
}
