package netem

import "testing"

func TestParseQueueArgs(t *testing.T) {
	type testcase struct {
		name    string
		args    string
		want    map[string]uint64
		wantErr bool
	}

	var testcases = []testcase{{
		name: "empty string",
		args: "",
		want: map[string]uint64{},
	}, {
		name: "single recognised name",
		args: "bytes=3000",
		want: map[string]uint64{"bytes": 3000},
	}, {
		name: "multiple recognised names",
		args: "bytes=3000,packets=10",
		want: map[string]uint64{"bytes": 3000, "packets": 10},
	}, {
		name: "unknown name ignored",
		args: "bogus=1,queues=4",
		want: map[string]uint64{"queues": 4},
	}, {
		name:    "missing equals sign",
		args:    "bytes3000",
		wantErr: true,
	}, {
		name:    "empty digit run",
		args:    "bytes=,packets=10",
		wantErr: true,
	}}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseQueueArgs(tc.args)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected an error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			for name, value := range tc.want {
				if got.Get(name) != value {
					t.Fatalf("%s: expected %d, got %d", name, value, got.Get(name))
				}
			}
		})
	}
}

func TestQueueArgsGetMissingName(t *testing.T) {
	args, err := ParseQueueArgs("bytes=3000")
	if err != nil {
		t.Fatal(err)
	}
	if v := args.Get("packets"); v != 0 {
		t.Fatalf("expected 0, got %d", v)
	}
}
