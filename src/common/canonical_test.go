package common

import (
	"reflect"
	"testing"
)

type snapshot struct {
	Seen      []int             `json:"seen"`
	Neighbors map[string][]int  `json:"neighbors"`
	Labels    map[string]string `json:"labels"`
}

func TestMarshalCanonical(t *testing.T) {
	a := snapshot{
		Seen:      []int{1, 2, 3},
		Neighbors: map[string][]int{"n2": {1}, "n1": {2, 3}, "n3": {}},
		Labels:    map[string]string{"z": "last", "a": "first"},
	}

	first, err := MarshalCanonical(a)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	for i := 0; i < 10; i++ {
		again, err := MarshalCanonical(a)
		if err != nil {
			t.Fatalf("err: %v", err)
		}
		if string(again) != string(first) {
			t.Fatalf("encoding should be stable: %s != %s", again, first)
		}
	}

	var b snapshot
	if err := UnmarshalCanonical(first, &b); err != nil {
		t.Fatalf("err: %v", err)
	}
	if !reflect.DeepEqual(a.Labels, b.Labels) || !reflect.DeepEqual(a.Seen, b.Seen) {
		t.Fatalf("decoded snapshot should be %+v, not %+v", a, b)
	}
}
