package pagination

import "testing"

func TestSlice(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	tests := []struct {
		name       string
		req        PageRequest
		want       []int
		totalPages int
	}{
		{"defaults", PageRequest{}, []int{1, 2, 3, 4, 5}, 1},
		{"first_page", PageRequest{Page: 1, PageSize: 2}, []int{1, 2}, 3},
		{"last_partial_page", PageRequest{Page: 3, PageSize: 2}, []int{5}, 3},
		{"past_end", PageRequest{Page: 9, PageSize: 2}, []int{}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Slice(items, tt.req)
			if len(got.Data) != len(tt.want) {
				t.Fatalf("got %v, want %v", got.Data, tt.want)
			}
			for i := range tt.want {
				if got.Data[i] != tt.want[i] {
					t.Errorf("item %d = %d, want %d", i, got.Data[i], tt.want[i])
				}
			}
			if got.TotalItems != 5 {
				t.Errorf("TotalItems = %d, want 5", got.TotalItems)
			}
			if got.TotalPages != tt.totalPages {
				t.Errorf("TotalPages = %d, want %d", got.TotalPages, tt.totalPages)
			}
		})
	}
}

func TestSlice_Empty(t *testing.T) {
	got := Slice[string](nil, PageRequest{})
	if got.Data == nil || len(got.Data) != 0 {
		t.Errorf("expected empty non-nil data, got %v", got.Data)
	}
	if got.TotalPages != 0 {
		t.Errorf("TotalPages = %d, want 0", got.TotalPages)
	}
}
