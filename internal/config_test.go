package internal_test

import (
	"time"

	"github.com/frahmantamala/school-core/internal"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func validConfig() internal.Config {
	return internal.Config{
		Env: "test",
		Server: internal.ServerConfig{
			Port:              8080,
			ReadHeaderTimeout: time.Second,
			ReadTimeout:       5 * time.Second,
		},
		Database: internal.DatabaseConfig{
			MaxOpenConns: 10,
			MaxIdleConns: 5,
			Source:       "postgres://localhost/school",
		},
		Security: internal.SecurityConfig{
			AccessTokenSecret:    "access-secret-access-secret-access-secret",
			RefreshTokenSecret:   "refresh-secret-refresh-secret-refresh-secret",
			AccessTokenDuration:  15 * time.Minute,
			RefreshTokenDuration: 24 * time.Hour,
			BCryptCost:           10,
		},
		Upload: internal.UploadConfig{MaxRows: 1000},
	}
}

var _ = Describe("Config", func() {
	It("accepts a complete configuration", func() {
		cfg := validConfig()
		Expect(cfg.Validate()).To(Succeed())
	})

	It("reports struct tag failures", func() {
		cfg := validConfig()
		cfg.Security.AccessTokenSecret = "short"
		err := cfg.Validate()
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("AccessTokenSecret"))
	})

	It("rejects more idle connections than open connections", func() {
		cfg := validConfig()
		cfg.Database.MaxIdleConns = 20
		err := cfg.Validate()
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("max_idle_conns"))
	})

	It("rejects identical token secrets", func() {
		cfg := validConfig()
		cfg.Security.RefreshTokenSecret = cfg.Security.AccessTokenSecret
		Expect(cfg.Validate()).NotTo(Succeed())
	})
})
