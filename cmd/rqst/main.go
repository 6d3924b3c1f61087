package main

import "os"

func main() {
	os.Setenv("RQST_RELEASE", "1")
	if err := Execute(); err != nil {
		fail(err)
	}
}
