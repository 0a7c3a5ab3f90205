package main

import "testing"

// The import and delete commands each carry their own --yes flag; setting
// one must not bleed into the other.
func TestImportYesFlagIndependent(t *testing.T) {
	initEntriesCmd()
	initTransferCmd()

	if err := importCmd.Flags().Set("yes", "true"); err != nil {
		t.Fatalf("Failed to set import --yes: %v", err)
	}

	if !importYesFlag {
		t.Error("Expected importYesFlag to be set")
	}
	if deleteYesFlag {
		t.Error("Expected deleteYesFlag to remain unset")
	}
	if deleteFlag := deleteEntriesCmd.Flags().Lookup("yes"); deleteFlag == nil {
		t.Error("Expected entries delete to define a --yes flag")
	} else if deleteFlag.Value.String() != "false" {
		t.Errorf("Expected entries delete --yes to stay false, got %s", deleteFlag.Value.String())
	}
}
