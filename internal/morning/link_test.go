package morning

import "testing"

func TestExtractLink(t *testing.T) {
	tests := []struct {
		name     string
		bundle   *URLBundle
		id       string
		wantKind LinkKind
		wantURL  string
	}{
		{
			name: "english wins",
			bundle: &URLBundle{
				En:     "see https://a.example/x please",
				He:     "https://b.example/he",
				Origin: "https://c.example/origin",
			},
			id:       "D123",
			wantKind: LinkFound,
			wantURL:  "https://a.example/x",
		},
		{
			name:     "hebrew only",
			bundle:   &URLBundle{He: "https://b.example/y"},
			wantKind: LinkFound,
			wantURL:  "https://b.example/y",
		},
		{
			name:     "english without url falls through to origin",
			bundle:   &URLBundle{En: "no link here", Origin: "http://c.example/z"},
			wantKind: LinkFound,
			wantURL:  "http://c.example/z",
		},
		{
			name:     "no-break space ends the url",
			bundle:   &URLBundle{En: "see https://a.example/x\u00a0please"},
			wantKind: LinkFound,
			wantURL:  "https://a.example/x",
		},
		{
			name:     "narrow no-break space ends the url",
			bundle:   &URLBundle{He: "קישור https://b.example/y\u202fלמסמך"},
			wantKind: LinkFound,
			wantURL:  "https://b.example/y",
		},
		{
			name:     "first match in a field",
			bundle:   &URLBundle{En: "https://one.example/1 https://two.example/2"},
			wantKind: LinkFound,
			wantURL:  "https://one.example/1",
		},
		{
			name:     "synthesized from id",
			id:       "D123",
			wantKind: LinkSynthesized,
			wantURL:  "https://greeninvoice.co.il/view/D123",
		},
		{
			name:     "nothing",
			wantKind: NoLink,
		},
		{
			name:     "empty bundle",
			bundle:   &URLBundle{},
			id:       "D123",
			wantKind: NoLink,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractLink(tt.bundle, tt.id, "")
			if got.Kind != tt.wantKind || got.URL != tt.wantURL {
				t.Errorf("ExtractLink() = %+v, want {%v %q}", got, tt.wantKind, tt.wantURL)
			}
		})
	}
}

func TestExtractLink_CustomViewBase(t *testing.T) {
	got := ExtractLink(nil, "D9", "https://viewer.example/docs/")
	if got.URL != "https://viewer.example/docs/D9" {
		t.Errorf("URL = %q", got.URL)
	}
}
