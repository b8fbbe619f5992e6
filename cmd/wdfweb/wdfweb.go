// Command wdfweb serves the contents of a WDF archive over HTTP.
package main

import (
	"flag"
	"net/http"
	"os"

	"badc0de.net/pkg/flagutil/v1"
	"github.com/golang/glog"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	_ "golang.org/x/net/trace"

	"badc0de.net/pkg/go-wdf/paths"
	"badc0de.net/pkg/go-wdf/wdf"
	"badc0de.net/pkg/go-wdf/web"
)

var (
	listenAddress = flag.String("listen_address", ":8080", "http listen address for wdfweb")
	accessLog     = flag.Bool("access_log", true, "whether to write a combined access log to stdout")

	wdfPath string
)

func main() {
	paths.SetupFilePathFlag("shape.wdf", "wdf_path", &wdfPath)
	flagutil.Parse()
	flag.Set("logtostderr", "true")

	if wdfPath == "" {
		glog.Exitf("no archive found; pass -wdf_path")
	}
	a, err := wdf.Open(wdfPath)
	if err != nil {
		glog.Exitf("opening %s: %v", wdfPath, err)
	}
	f, err := a.Source()
	if err != nil {
		glog.Exitf("%v", err)
	}
	defer f.Close()
	glog.Infof("serving %d entries from %s", a.Len(), wdfPath)

	r := mux.NewRouter()
	web.NewHandler(a, f).RegisterRoutes(r)
	// /debug/requests and /debug/events, registered by x/net/trace.
	r.PathPrefix("/debug/").Handler(http.DefaultServeMux)

	var h http.Handler = r
	if *accessLog {
		h = handlers.CombinedLoggingHandler(os.Stdout, h)
	}
	h = handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(h)

	glog.Fatal(http.ListenAndServe(*listenAddress, h))
}
