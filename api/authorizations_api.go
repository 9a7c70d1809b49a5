package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	ctecancel "github.com/freteops/ctecancel"
	"github.com/freteops/ctecancel/internal/apierror"
	"github.com/freteops/ctecancel/internal/logbuf"
	"github.com/freteops/ctecancel/model"
)

// respondError maps a service error onto an HTTP status and body.
func respondError(c *gin.Context, err error) {
	status := apierror.MapErrorToHTTPStatus(err)
	if apiErr, ok := err.(apierror.APIError); ok {
		c.JSON(status, apiErr)
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// ListAuthorizations handles the filtered, paginated listing.
func (a Api) ListAuthorizations(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	items, total, err := a.service.ListAuthorizations(c.Request.Context(), c.Query("q"), c.Query("status"), offset, limit)
	if err != nil {
		logrus.Error(err)
		respondError(c, err)
		return
	}
	if items == nil {
		items = []*model.Authorization{}
	}

	c.JSON(http.StatusOK, gin.H{"items": items, "total": total, "skip": offset, "take": limit})
}

// GetStats handles the per-status record counts.
func (a Api) GetStats(c *gin.Context) {
	counts, err := a.service.GetStats(c.Request.Context())
	if err != nil {
		logrus.Error(err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

// ImportSpreadsheet handles the upload of a CSV/XLSX/XLS file of
// cancellation authorizations.
func (a Api) ImportSpreadsheet(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File upload failed"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File upload failed"})
		return
	}

	result, err := a.service.ImportSpreadsheet(c.Request.Context(), data, header.Filename)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ImportXMLBatch handles the upload of multiple XML documents, attaching
// each to the persisted records matching its CT-e key.
func (a Api) ImportXMLBatch(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File upload failed"})
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No XML files sent"})
		return
	}

	files := make([]ctecancel.XMLFile, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "File upload failed"})
			return
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "File upload failed"})
			return
		}
		files = append(files, ctecancel.XMLFile{Filename: h.Filename, Content: string(content)})
	}

	results := a.service.ImportXMLBatch(c.Request.Context(), files)
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// AttachXML handles attaching an XML document to a single record by id.
func (a Api) AttachXML(c *gin.Context) {
	id := c.Param("id")

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No XML file sent"})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File upload failed"})
		return
	}

	updated, err := a.service.AttachXML(c.Request.Context(), id, string(content))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// SendToSap handles forwarding a record to SAP. A send failure has already
// been persisted as the ERROR state, so the record is returned alongside
// the 500.
func (a Api) SendToSap(c *gin.Context) {
	id := c.Param("id")

	auth, err := a.service.SendToSap(c.Request.Context(), id)
	if err != nil {
		logrus.Error(err)
		if auth != nil {
			c.JSON(http.StatusInternalServerError, auth)
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, auth)
}

// GetLogs exposes the recent diagnostic events.
func (a Api) GetLogs(c *gin.Context) {
	n, _ := strconv.Atoi(c.DefaultQuery("n", "200"))
	c.JSON(http.StatusOK, logbuf.Last(n))
}
