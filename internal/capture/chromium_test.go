package capture

import (
	"context"
	"testing"
	"time"
)

func TestOptionsNormalize(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{name: "missing url", opts: Options{}, wantErr: true},
		{name: "relative url", opts: Options{URL: "/calendar"}, wantErr: true},
		{name: "file scheme", opts: Options{URL: "file:///tmp/x.html"}, wantErr: true},
		{name: "negative width", opts: Options{URL: "http://127.0.0.1:8080/calendar", Width: -1}, wantErr: true},
		{name: "defaults", opts: Options{URL: "http://127.0.0.1:8080/calendar"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			err := opts.normalize()
			if (err != nil) != tt.wantErr {
				t.Fatalf("normalize() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if opts.Width != DefaultWidth || opts.Height != DefaultHeight || opts.Timeout != DefaultTimeout {
				t.Fatalf("defaults not applied: %+v", opts)
			}
		})
	}
}

func TestWritePNGRejectsBadInput(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := WritePNG(ctx, Options{URL: "http://127.0.0.1:1/calendar"}, ""); err == nil {
		t.Fatalf("expected error for empty output path")
	}
	if err := WritePNG(ctx, Options{}, t.TempDir()+"/out.png"); err == nil {
		t.Fatalf("expected error for missing URL")
	}
}
