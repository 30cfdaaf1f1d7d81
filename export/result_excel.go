package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// DefaultSheetName 默认工作表
const DefaultSheetName = "Sheet1"

// SaveAsExcel 把所有csv文件写入一个xlsx文件，每个csv文件对应一个工作表
func (r *ExportResult) SaveAsExcel(path string) (err error) {
	fp := excelize.NewFile()
	defer func() {
		if cerr := fp.Close(); cerr != nil && err == nil {
			err = ErrIO.Wrap(cerr)
		}
	}()
	for i, f := range r.files {
		sheet := DefaultSheetName
		if i > 0 {
			sheet = fmt.Sprintf("Sheet%d", i+1)
			if _, err = fp.NewSheet(sheet); err != nil {
				return ErrIO.Wrap(err)
			}
		}
		if err = r.writeSheet(fp, sheet, f); err != nil {
			return err
		}
	}
	if err = fp.SaveAs(path); err != nil {
		return ErrIO.Wrap(err)
	}
	return nil
}

func (r *ExportResult) writeSheet(fp *excelize.File, sheet string, f CsvFile) error {
	sw, err := fp.NewStreamWriter(sheet)
	if err != nil {
		return ErrIO.Wrap(err)
	}
	row := 0
	err = r.readFile(f, func(_ recordKind, raw string) error {
		record, err := decodeRecord(raw)
		if err != nil {
			return err
		}
		row++
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		values := make([]any, len(record))
		for i := range record {
			//空值不写入单元格
			if record[i] != "" {
				values[i] = record[i]
			}
		}
		return sw.SetRow(cell, values)
	})
	if err != nil {
		return ErrIO.Wrap(err)
	}
	return ErrIO.Wrap(sw.Flush())
}
