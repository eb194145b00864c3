// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package rest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mlnoga/doqlight/internal/ops"
	"github.com/mlnoga/doqlight/web"
)

// Serves the REST API on the given address until the listener fails
func Serve(addr string, software string) error {
	return NewRouter(software).Run(addr)
}

func NewRouter(software string) *gin.Engine {
	r := gin.Default()
	r.GET("/", getIndex)
	api := r.Group("/api")
	{
		v1 := api.Group("/v1")
		{
			v1.GET("/ping", getPing)
			v1.POST("/stats", postOperator("stats", software))
			v1.POST("/stretch", postOperator("stretch", software))
			v1.POST("/header", postHeader)
		}
	}
	return r
}

func getIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", web.IndexHTML)
}

func getPing(c *gin.Context) {
	c.JSON(200, gin.H{
		"message": "pong",
	})
}

func printArgs(logWriter io.Writer, prefix, suffix string, args interface{}) error {
	m, err := json.MarshalIndent(args, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(logWriter, "%s%s%s", prefix, string(m), suffix)
	return nil
}

// Returns true if a path is considered safe, i.e. not an absolute path,
// and doesn't contain the ".." characters to change to a parent directory
func isPathAllowed(p string) bool {
	if filepath.IsAbs(p) {
		return false // relative paths only
	}
	if strings.Contains(p, "..") {
		return false // no going outside the tree
	}
	return true
}

// Decodes the request body into a new operator of the given type, with defaults
// for missing fields. Writes an error response and returns nil on failure
func bindOperator(c *gin.Context, opType string) ops.Operator {
	op := ops.GetOperatorFactory(opType)()
	if err := c.ShouldBindJSON(op); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil
	}
	if op.GetType() != opType {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("operator type '%s' posted to %s", op.GetType(), opType)})
		return nil
	}
	for _, p := range op.Paths() {
		if !isPathAllowed(p) {
			c.JSON(http.StatusForbidden, gin.H{"error": fmt.Sprintf("file name %s outside current directory tree", p)})
			return nil
		}
	}
	return op
}

// Runs the operator posted as JSON, streaming its log as plain text
func postOperator(opType string, software string) gin.HandlerFunc {
	return func(c *gin.Context) {
		op := bindOperator(c, opType)
		if op == nil {
			return
		}

		logWriter := c.Writer
		header := logWriter.Header()
		header.Set("Content-Type", "text/plain")
		logWriter.WriteHeader(http.StatusOK)

		if err := printArgs(logWriter, "Arguments:\n", "\n", op); err != nil {
			fmt.Fprintf(logWriter, "Error printing arguments: %s\n", err.Error())
			return
		}

		ctx := ops.NewContext(logWriter)
		ctx.Software = software
		if err := op.Apply(ctx); err != nil {
			fmt.Fprintf(logWriter, "Error: %s\n", err.Error())
		}
		logWriter.Flush()
	}
}

// Returns the header entries of the posted DOQ as JSON
func postHeader(c *gin.Context) {
	op := bindOperator(c, "header")
	if op == nil {
		return
	}
	es, err := op.(*ops.OpHeader).Entries()
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": es})
}
