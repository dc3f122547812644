package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ZanzyTHEbar/extraction-eval/internal/chart"
	apperrors "github.com/ZanzyTHEbar/extraction-eval/internal/errors"
	"github.com/ZanzyTHEbar/extraction-eval/internal/evaluation"
	"github.com/ZanzyTHEbar/extraction-eval/internal/wordcloud"
)

const htmlContentType = "text/html; charset=utf-8"

// sampleComments back the GET preview so a layout can be eyeballed without
// composing a request body.
var sampleComments = []wordcloud.Comment{
	{Text: "The title was extracted correctly and the authors look accurate.", ComponentName: "metadata"},
	{Text: "Authors are missing the last name of the second author.", ComponentName: "metadata"},
	{Text: "Venue is wrong, it should be the journal not the conference.", ComponentName: "metadata"},
	{Text: "Research field is accurate and the ranking looks good.", ComponentName: "researchField"},
	{Text: "Research problem description is vague and incomplete.", ComponentName: "researchProblem"},
	{Text: "Template choice is good but properties are missing.", ComponentName: "template"},
	{Text: "Extracted values are accurate for most properties.", ComponentName: "content"},
	{Text: "Some values are wrong and units are missing.", ComponentName: "content"},
	{Text: "Publication year and DOI are correct.", ComponentName: "metadata"},
	{Text: "The research field ranking is confusing.", ComponentName: "researchField"},
}

func (s *server) renderWordCloud(c *gin.Context, req layoutRequest) {
	resp, ok := s.runLayout(c, req)
	if !ok {
		return
	}

	page, err := chart.WordCloudScatter(resp.Words, resp.Width, resp.Height, resp.Strategy)
	if err != nil {
		fail(c, apperrors.NewInternalError("Failed to render word cloud preview", err))
		return
	}
	c.Data(http.StatusOK, htmlContentType, page)
}

// debugWordCloudSample previews the built-in comments. Query parameters
// strategy, width, height, maxWords and seed override the layout defaults.
func (s *server) debugWordCloudSample(c *gin.Context) {
	req := layoutRequest{
		Comments:  sampleComments,
		Component: c.Query("component"),
		Strategy:  c.Query("strategy"),
	}

	problems := map[string]string{}
	if v := c.Query("width"); v != "" {
		w, err := strconv.ParseFloat(v, 64)
		if err != nil {
			problems["width"] = "must be a number"
		}
		req.Width = w
	}
	if v := c.Query("height"); v != "" {
		h, err := strconv.ParseFloat(v, 64)
		if err != nil {
			problems["height"] = "must be a number"
		}
		req.Height = h
	}
	if v := c.Query("maxWords"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			problems["maxWords"] = "must be an integer"
		}
		req.MaxWords = &n
	}
	if v := c.Query("seed"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			problems["seed"] = "must be an unsigned integer"
		}
		req.Seed = &seed
	}
	if len(problems) > 0 {
		fail(c, apperrors.NewValidationError("invalid query parameters", problems))
		return
	}

	s.renderWordCloud(c, req)
}

func (s *server) debugWordCloud(c *gin.Context) {
	var req layoutRequest
	if !bindJSON(c, &req) {
		return
	}
	s.renderWordCloud(c, req)
}

func (s *server) debugScores(c *gin.Context) {
	scored, ok := s.scoreBatch(c)
	if !ok {
		return
	}

	page, err := chart.ScoreHistogram(evaluation.Summarize(scored))
	if err != nil {
		fail(c, apperrors.NewInternalError("Failed to render score histogram", err))
		return
	}
	c.Data(http.StatusOK, htmlContentType, page)
}
