package task

import "testing"

func TestRepository(t *testing.T) {
	t.Parallel()

	repo := NewRepository([]Task{{ID: "a"}, {ID: "b"}})

	if repo.Len() != 2 {
		t.Errorf("Len = %d, want 2", repo.Len())
	}

	if repo.CallCount() != 0 {
		t.Error("Len counted as a scan")
	}

	if got := repo.All(); len(got) != 2 {
		t.Errorf("All returned %d tasks", len(got))
	}

	if repo.CallCount() != 1 {
		t.Errorf("CallCount = %d, want 1", repo.CallCount())
	}

	repo.Replace([]Task{{ID: "c"}})

	if repo.Len() != 1 || repo.All()[0].ID != "c" {
		t.Error("Replace did not swap the collection")
	}
}
