package types_test

import (
	"encoding/json"
	"testing"

	types "github.com/okian/gauntlet/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestWireFieldNames(t *testing.T) {
	Convey("Given the wire shapes", t, func() {
		Convey("When an entry is encoded", func() {
			b, err := json.Marshal(types.Entry{Name: "Bob", Cash: 1, Sales: 2, Burn: 3, CreatedAt: "2024-01-01 00:00:00"})

			Convey("Then it uses the public field names and omits the id", func() {
				So(err, ShouldBeNil)
				So(string(b), ShouldEqual, `{"name":"Bob","cash":1,"sales":2,"burn":3,"createdAt":"2024-01-01 00:00:00"}`)
			})
		})

		Convey("When responses are encoded", func() {
			health, _ := json.Marshal(types.Health{OK: true, DB: false})
			submit, _ := json.Marshal(types.SubmitResponse{OK: true, ID: 4})
			reset, _ := json.Marshal(types.ResetResponse{OK: true, Deleted: 0})
			failure, _ := json.Marshal(types.ErrorResponse{Error: "Name is required."})

			Convey("Then they match the documented bodies", func() {
				So(string(health), ShouldEqual, `{"ok":true,"db":false}`)
				So(string(submit), ShouldEqual, `{"ok":true,"id":4}`)
				So(string(reset), ShouldEqual, `{"ok":true,"deleted":0}`)
				So(string(failure), ShouldEqual, `{"error":"Name is required."}`)
			})
		})
	})
}
