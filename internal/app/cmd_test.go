package app

import "testing"

// TestParseCommand はサブコマンドの解析をテストする。
func TestParseCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want Command
	}{
		{"引数なしはserve", nil, CommandServe},
		{"空スライスはserve", []string{}, CommandServe},
		{"serve指定", []string{"serve"}, CommandServe},
		{"healthcheck指定", []string{"healthcheck"}, CommandHealthcheck},
		{"未知のコマンドはserve", []string{"unknown"}, CommandServe},
		{"後続引数は無視", []string{"healthcheck", "extra"}, CommandHealthcheck},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseCommand(tt.args); got != tt.want {
				t.Errorf("ParseCommand(%v) = %q, want %q", tt.args, got, tt.want)
			}
		})
	}
}

// TestRun_HealthcheckAgainstClosedPort はサーバー未起動時のhealthcheckが
// エラーになることをテストする。
func TestRun_HealthcheckAgainstClosedPort(t *testing.T) {
	t.Setenv("SERVER_PORT", "1") // 接続できないポート

	if err := Run(nil, []string{"healthcheck"}); err == nil {
		t.Error("healthcheck should fail when no server is listening")
	}
}

// TestRun_MissingConfig は必須環境変数なしでの起動が失敗することをテストする。
func TestRun_MissingConfig(t *testing.T) {
	t.Setenv("ADMIN_TOKEN", "")
	t.Setenv("LOG_WEBHOOK_URL", "")

	if err := Run(nil, []string{"serve"}); err == nil {
		t.Error("serve should fail when required config is missing")
	}
}
