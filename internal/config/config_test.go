package config_test

import (
	"testing"
	"time"

	"github.com/okian/reviewdesk/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.SessionTimeout(), convey.ShouldEqual, 120*time.Second)
			convey.So(cfg.SearchWindow, convey.ShouldEqual, 100)
			convey.So(cfg.MaxPreload, convey.ShouldEqual, 3)
			convey.So(cfg.UsernameMaxLength, convey.ShouldEqual, 50)
			convey.So(cfg.SweepInterval(), convey.ShouldEqual, 30*time.Second)
			convey.So(cfg.PersistTimeout(), convey.ShouldEqual, 5*time.Second)
			convey.So(cfg.StoreBackend, convey.ShouldEqual, "file")
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})

	convey.Convey("Given a list of CORS origins", t, func() {
		cfg := config.New()
		cfg.CORSAllowedOrigins = " https://a.test, ,https://b.test "

		convey.Convey("Then it is split and trimmed", func() {
			convey.So(cfg.AllowedOrigins(), convey.ShouldResemble, []string{"https://a.test", "https://b.test"})
		})
	})
}
