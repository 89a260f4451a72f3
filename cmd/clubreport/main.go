package main

import (
	"clubreport-backend/cmd/clubreport/commands"
	"clubreport-backend/lib/serviceutil"
)

func main() {
	ctx := serviceutil.SignalContext()
	commands.Execute(ctx)
}
